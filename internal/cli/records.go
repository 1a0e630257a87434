package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"nctracker/internal/core"
	applog "nctracker/internal/log"
)

// RecordView is the JSON shape of a stored record.
type RecordView struct {
	Category      core.Category `json:"category"`
	ApprovalDate  string        `json:"approval_date"`
	RequestNumber string        `json:"request_number"`
	Description   string        `json:"description"`
}

func viewOf(c core.Category, r core.Record) RecordView {
	return RecordView{
		Category:      c,
		ApprovalDate:  r.ApprovalDate,
		RequestNumber: r.RequestNumber,
		Description:   r.Description,
	}
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the workbook",
		Long: `Create the workbook with one sheet per category, add any missing sheet
and upgrade legacy two column sheets to the current layout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.service.Startup(cmd.Context()); err != nil {
		return s.out.Fail(ErrCodeStorage, err)
	}
	path := s.service.Store().Path()
	return s.out.Success(map[string]any{
		"path":       path,
		"categories": core.Categories(),
	}, func(w io.Writer) {
		fmt.Fprintf(w, "Workbook ready: %s\n", path)
	})
}

type addOptions struct {
	category    string
	date        string
	request     string
	description string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &addOptions{}
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Append a record to a category sheet",
		Long: `Append one approved record to the Change Request or Work Permit sheet.

Multi-line descriptions are collapsed into a single line. Pass "-" as the
description to read it from standard input.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "record category (cr|wp)")
	cmd.Flags().StringVarP(&opts.date, "date", "d", "", "approval date YYYY-MM-DD (default today)")
	cmd.Flags().StringVarP(&opts.request, "request", "r", "", "request number")
	cmd.Flags().StringVarP(&opts.description, "description", "m", "", `description of work ("-" reads stdin)`)
	_ = cmd.MarkFlagRequired("category")
	_ = cmd.MarkFlagRequired("description")

	return cmd
}

func runAdd(rootOpts *RootOptions, opts *addOptions, cmd *cobra.Command) error {
	out := newFormatter(rootOpts, cmd)
	category, err := core.ParseCategory(opts.category)
	if err != nil {
		return out.Fail(ErrCodeValidation, err)
	}

	description := opts.description
	if description == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return out.Fail(ErrCodeGeneric, fmt.Errorf("read description from stdin: %w", err))
		}
		description = string(data)
	}
	date := opts.date
	if strings.TrimSpace(date) == "" {
		date = time.Now().Format(core.DateLayout)
	}

	s, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	if err := s.service.Startup(ctx); err != nil {
		return s.out.Fail(ErrCodeStorage, err)
	}
	stored, err := s.service.AddRecord(ctx, category, core.Record{
		ApprovalDate:  date,
		RequestNumber: opts.request,
		Description:   description,
	})
	if err != nil {
		return s.out.Fail(ErrCodeStorage, err)
	}
	applog.FromContext(ctx).Debug("Record added",
		applog.FieldCategory, category,
		applog.FieldApprovalDate, stored.ApprovalDate,
		applog.FieldRequestNumber, stored.RequestNumber)

	return s.out.Success(viewOf(category, stored), func(w io.Writer) {
		fmt.Fprintf(w, "Added %s record: %s | %s | %s\n",
			category, stored.ApprovalDate, stored.RequestNumber, stored.Description)
	})
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the records of a category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, category, cmd)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "record category (cr|wp)")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func runList(opts *RootOptions, categoryFlag string, cmd *cobra.Command) error {
	out := newFormatter(opts, cmd)
	category, err := core.ParseCategory(categoryFlag)
	if err != nil {
		return out.Fail(ErrCodeValidation, err)
	}

	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	recs, err := s.service.ListRecords(ctx, category)
	if err != nil {
		return s.out.Fail(ErrCodeStorage, err)
	}
	fields := applog.NewFields().WithOperation("list").WithCategory(string(category)).WithPath(s.service.Store().Path())
	applog.FromContext(ctx).Debug("Records read", append(fields.ToSlice(), "count", len(recs))...)
	s.out.VerboseLog("Read %d %s record(s) from %s", len(recs), category, s.service.Store().Path())

	views := make([]RecordView, 0, len(recs))
	for _, r := range recs {
		views = append(views, viewOf(category, r))
	}
	return s.out.Success(views, func(w io.Writer) {
		if len(recs) == 0 {
			fmt.Fprintf(w, "No %s records.\n", category)
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\n", core.HeaderApprovalDate, core.HeaderRequestNumber, core.HeaderDescription)
		for _, r := range recs {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.ApprovalDate, r.RequestNumber, r.Description)
		}
		tw.Flush()
	})
}
