package backend

import (
	"context"
	"fmt"
	"log/slog"

	applog "nctracker/internal/log"
	"nctracker/internal/services"
	"nctracker/internal/sheets"
	"nctracker/internal/sheets/memory"
	"nctracker/internal/sheets/xlsx"
	"nctracker/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var store sheets.Store
	switch config.Type {
	case XLSXBackend:
		store = xlsx.New(config.FilePath, config.Policy(), f.logger.With(applog.FieldComponent, applog.ComponentStore))
		f.logger.DebugContext(ctx, "Initialized xlsx backend", applog.FieldPath, config.FilePath)
	case MemoryBackend:
		dataDir := config.DataDirectory
		if dataDir == "" {
			dataDir = "data"
		}
		store = memory.NewFromFiles(dataDir, config.Policy())
		f.logger.InfoContext(ctx, "Initialized memory backend, records are not persisted", "data_directory", dataDir)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	// Journal is optional: a broken journal must not block the tracker.
	var journal services.Journal
	if config.JournalDBPath != "" {
		repo, err := storage.NewSQLiteRepository(config.JournalDBPath)
		if err != nil {
			f.logger.With(applog.FieldComponent, applog.ComponentJournal).WarnContext(ctx, "Failed to open journal, continuing without it",
				"path", config.JournalDBPath, "error", err)
		} else {
			journal = repo
		}
	}

	svc := services.NewRecordService(store, journal, f.logger.With(applog.FieldComponent, applog.ComponentApp))
	return &BackendResult{
		Service: svc,
		Cleanup: svc.Close,
	}, nil
}
