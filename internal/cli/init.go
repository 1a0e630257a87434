// Package cli provides the nctracker command line.
//
// init.go holds the start-up helpers every command shares: environment,
// configuration, logging and the backend the command runs against.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"nctracker/internal/backend"
	"nctracker/internal/config"
	applog "nctracker/internal/log"
)

// SetupLogger builds the structured logger from the configuration and sets
// it as the default logger. Output goes to w so stdout stays clean.
func SetupLogger(cfg *config.Config, w io.Writer) *applog.Logger {
	level, err := applog.ParseLevel(cfg.LogLevel)
	logger := applog.New(applog.Config{
		Level:     level,
		Format:    cfg.LogFormat,
		Component: applog.ComponentCLI,
		Output:    w,
	})
	if err != nil {
		logger.Warn("Unknown log level, using info", applog.FieldError, err)
	}
	applog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local use. A missing file is ignored.
func LoadEnvFile() error {
	return config.LoadEnvFile()
}

// LoadAndValidateConfig loads configuration from the environment, applies
// the command line overrides and validates the result.
func LoadAndValidateConfig(opts *RootOptions) (*config.Config, error) {
	cfg := config.Load()
	if opts != nil {
		if opts.File != "" {
			cfg.FilePath = opts.File
		}
		if opts.Verbose {
			cfg.LogLevel = "debug"
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenBackend builds the record service for the configured backend.
func OpenBackend(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*backend.BackendResult, error) {
	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	factory := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger)
	result, err := factory.CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	return result, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM, so a
// command interrupted mid-save still runs its cleanup.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
