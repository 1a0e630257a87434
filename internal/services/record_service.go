package services

import (
	"context"
	"fmt"
	"log/slog"

	"nctracker/internal/core"
	"nctracker/internal/sheets"
	"nctracker/internal/storage"
)

// Journal is the subset of the activity journal the service writes to.
type Journal interface {
	Record(ctx context.Context, e storage.Entry) (storage.Entry, error)
	Recent(ctx context.Context, limit int) ([]storage.Entry, error)
	Count(ctx context.Context, outcome string) (int64, error)
	Close() error
}

// RecordService runs store operations and journals their outcome. The store
// stays the source of truth: a journal failure is logged and never fails
// the user's action.
type RecordService struct {
	store   sheets.Store
	journal Journal
	logger  *slog.Logger
}

func NewRecordService(store sheets.Store, journal Journal, logger *slog.Logger) *RecordService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RecordService{store: store, journal: journal, logger: logger}
}

// Store returns the underlying record store.
func (s *RecordService) Store() sheets.Store {
	return s.store
}

// Startup prepares the store and migrates every category, in the order the
// front end needs before its first read.
func (s *RecordService) Startup(ctx context.Context) error {
	if err := s.store.EnsureStore(ctx); err != nil {
		s.journalOutcome(ctx, storage.Entry{Operation: storage.OpEnsure}, err)
		return fmt.Errorf("prepare workbook: %w", err)
	}
	for _, c := range core.Categories() {
		if err := s.migrate(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// migrate upgrades a legacy category sheet, journaling only real changes.
func (s *RecordService) migrate(ctx context.Context, c core.Category) error {
	migrated, err := s.store.MigrateLegacySchema(ctx, c)
	if err != nil {
		s.journalOutcome(ctx, storage.Entry{Operation: storage.OpMigrate, Category: c}, err)
		return fmt.Errorf("migrate %s: %w", c, err)
	}
	if migrated {
		s.journalOutcome(ctx, storage.Entry{Operation: storage.OpMigrate, Category: c}, nil)
	}
	return nil
}

// AddRecord appends the record and returns the stored value. The stored
// description can differ from the input: line breaks are collapsed and the
// text is NFC normalized, so callers should display the returned record.
func (s *RecordService) AddRecord(ctx context.Context, c core.Category, r core.Record) (core.Record, error) {
	stored, err := s.store.Append(ctx, c, r)
	entry := storage.Entry{Operation: storage.OpAppend, Category: c, Record: r}
	if err == nil {
		entry.Record = stored
	}
	s.journalOutcome(ctx, entry, err)
	if err != nil {
		return core.Record{}, fmt.Errorf("add %s record: %w", c, err)
	}
	return stored, nil
}

// ListRecords reads the category straight from the store. A legacy two
// column sheet is migrated first so its cells are read in the right columns.
func (s *RecordService) ListRecords(ctx context.Context, c core.Category) ([]core.Record, error) {
	if err := s.migrate(ctx, c); err != nil {
		return nil, err
	}
	recs, err := s.store.List(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", c, err)
	}
	return recs, nil
}

// Export copies the workbook into destDir.
func (s *RecordService) Export(ctx context.Context, destDir string, overwrite bool) (string, error) {
	dest, err := s.store.Export(ctx, destDir, overwrite)
	entry := storage.Entry{Operation: storage.OpExport, Detail: dest}
	s.journalOutcome(ctx, entry, err)
	if err != nil {
		return "", fmt.Errorf("export workbook: %w", err)
	}
	return dest, nil
}

// History returns the most recent journal entries, newest first.
func (s *RecordService) History(ctx context.Context, limit int) ([]storage.Entry, error) {
	if s.journal == nil {
		return nil, nil
	}
	return s.journal.Recent(ctx, limit)
}

// ActivityCount returns how many journal entries have the given outcome, or
// all entries when outcome is empty. It is zero when the journal is off.
func (s *RecordService) ActivityCount(ctx context.Context, outcome string) (int64, error) {
	if s.journal == nil {
		return 0, nil
	}
	return s.journal.Count(ctx, outcome)
}

func (s *RecordService) journalOutcome(ctx context.Context, e storage.Entry, err error) {
	if s.journal == nil {
		return
	}
	e.WorkbookPath = s.store.Path()
	e.Outcome = Outcome(err)
	if err != nil {
		e.Detail = err.Error()
	}
	if _, jerr := s.journal.Record(ctx, e); jerr != nil {
		s.logger.WarnContext(ctx, "Failed to write journal entry",
			"operation", e.Operation, "error", jerr)
	}
}

// Outcome classifies err for the journal.
func Outcome(err error) string {
	switch {
	case err == nil:
		return storage.OutcomeOK
	case core.IsValidation(err):
		return storage.OutcomeValidationError
	default:
		return storage.OutcomeStorageError
	}
}

// Close releases the journal.
func (s *RecordService) Close() error {
	if s.journal == nil {
		return nil
	}
	if err := s.journal.Close(); err != nil {
		return fmt.Errorf("close journal: %w", err)
	}
	return nil
}
