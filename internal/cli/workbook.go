package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	applog "nctracker/internal/log"
	"nctracker/internal/storage"
)

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "export <dest-dir>",
		Short: "Copy the workbook into a folder",
		Long: `Copy the workbook into a shared or synced folder (for example OneDrive).
The live workbook stays where it is; an existing copy is only replaced with
--force.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, args[0], force, cmd)
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing copy")
	return cmd
}

func runExport(opts *RootOptions, destDir string, force bool, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	dest, err := s.service.Export(ctx, destDir, force)
	if err != nil {
		return s.out.Fail(ErrCodeStorage, err)
	}
	fields := applog.NewFields().WithOperation(storage.OpExport).WithPath(dest)
	applog.FromContext(ctx).Debug("Export finished", fields.ToSlice()...)
	return s.out.Success(map[string]string{"path": dest}, func(w io.Writer) {
		fmt.Fprintf(w, "Exported to %s\n", dest)
	})
}

// EntryView is the JSON shape of a journal entry.
type EntryView struct {
	ID            string    `json:"id"`
	OccurredAt    time.Time `json:"occurred_at"`
	Operation     string    `json:"operation"`
	Category      string    `json:"category,omitempty"`
	ApprovalDate  string    `json:"approval_date,omitempty"`
	RequestNumber string    `json:"request_number,omitempty"`
	Outcome       string    `json:"outcome"`
	Detail        string    `json:"detail,omitempty"`
	WorkbookPath  string    `json:"workbook_path,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent workbook activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(rootOpts, limit, cmd)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of entries to show")
	return cmd
}

func runHistory(opts *RootOptions, limit int, cmd *cobra.Command) error {
	s, err := openSession(opts, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	entries, err := s.service.History(ctx, limit)
	if err != nil {
		return s.out.Fail(ErrCodeGeneric, err)
	}
	total, err := s.service.ActivityCount(ctx, "")
	if err != nil {
		return s.out.Fail(ErrCodeGeneric, err)
	}
	failed, err := s.service.ActivityCount(ctx, storage.OutcomeStorageError)
	if err != nil {
		return s.out.Fail(ErrCodeGeneric, err)
	}

	views := make([]EntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, EntryView{
			ID:            e.ID,
			OccurredAt:    e.OccurredAt,
			Operation:     e.Operation,
			Category:      string(e.Category),
			ApprovalDate:  e.Record.ApprovalDate,
			RequestNumber: e.Record.RequestNumber,
			Outcome:       e.Outcome,
			Detail:        e.Detail,
			WorkbookPath:  e.WorkbookPath,
		})
	}
	return s.out.Success(views, func(w io.Writer) {
		if len(entries) == 0 {
			fmt.Fprintln(w, "No activity recorded.")
			return
		}
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "TIME\tOPERATION\tCATEGORY\tOUTCOME\tDETAIL")
		for _, e := range entries {
			detail := e.Detail
			if e.Operation == storage.OpAppend && e.Outcome == storage.OutcomeOK {
				detail = e.Record.ApprovalDate + " " + e.Record.RequestNumber
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				e.OccurredAt.Local().Format("2006-01-02 15:04:05"), e.Operation, e.Category, e.Outcome, detail)
		}
		tw.Flush()
		fmt.Fprintf(w, "Showing %d of %d entries, %d storage failure(s).\n", len(entries), total, failed)
	})
}

// NewPathCommand creates the path command.
func NewPathCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the workbook path",
		Long:  "Print the workbook path, for opening it in a spreadsheet application.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			path := s.service.Store().Path()
			return s.out.Success(map[string]string{"path": path}, func(w io.Writer) {
				fmt.Fprintln(w, path)
			})
		},
	}
}
