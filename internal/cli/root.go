package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	applog "nctracker/internal/log"
	"nctracker/internal/services"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	File    string
	Verbose bool
	Format  string // "json" | "text"
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the tracker CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "nctracker",
		Short: "Network change tracker",
		Long: `Record approved network Change Requests and Work Permits in a local
Excel workbook, one sheet per category.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return LoadEnvFile()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.File, "file", "", "workbook path (overrides TRACKER_FILE)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewPathCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// session is what a command runs against: the formatter for its output and
// the record service for the configured backend.
type session struct {
	out     *OutputFormatter
	logger  *applog.Logger
	service *services.RecordService
	cleanup func() error
}

func (s *session) Close() {
	if s.cleanup == nil {
		return
	}
	if err := s.cleanup(); err != nil {
		s.logger.Warn("Cleanup failed", applog.FieldError, err)
	}
}

// openSession loads the configuration and opens the backend. Failures are
// reported through the formatter and returned as an ExitError.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	out := newFormatter(opts, cmd)

	cfg, err := LoadAndValidateConfig(opts)
	if err != nil {
		return nil, out.Fail(ErrCodeConfig, err)
	}
	logger := SetupLogger(cfg, cmd.ErrOrStderr())
	logger.Debug("Configuration loaded",
		applog.FieldBackend, cfg.DataBackend,
		applog.FieldPath, cfg.FilePath,
		"journal", cfg.JournalEnabled)

	cmd.SetContext(applog.WithLogger(cmd.Context(), logger))

	result, err := OpenBackend(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, out.Fail(ErrCodeConfig, err)
	}
	return &session{
		out:     out,
		logger:  logger,
		service: result.Service,
		cleanup: result.Cleanup,
	}, nil
}
