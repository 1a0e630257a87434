package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"nctracker/internal/core"

	_ "modernc.org/sqlite"
)

// Operations recorded in the journal.
const (
	OpEnsure  = "ensure"
	OpMigrate = "migrate"
	OpAppend  = "append"
	OpExport  = "export"
)

// Outcomes recorded in the journal.
const (
	OutcomeOK              = "ok"
	OutcomeValidationError = "validation_error"
	OutcomeStorageError    = "storage_error"
)

// Entry is one line of the activity journal. The journal only describes
// what happened; records themselves are always read from the workbook.
type Entry struct {
	ID           string
	OccurredAt   time.Time
	Operation    string
	Category     core.Category
	Record       core.Record
	Outcome      string
	Detail       string
	WorkbookPath string
}

type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	slog.Debug("Journal schema ready", "path", dbPath, "version", version)

	return &SQLiteRepository{db: db, now: time.Now}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Record stores the entry, filling in ID and OccurredAt when unset.
func (r *SQLiteRepository) Record(ctx context.Context, e Entry) (Entry, error) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = r.now()
	}
	e.OccurredAt = e.OccurredAt.UTC()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity (id, occurred_at, operation, category, approval_date,
			request_number, description, outcome, detail, workbook_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.OccurredAt.Format(time.RFC3339Nano),
		e.Operation,
		string(e.Category),
		e.Record.ApprovalDate,
		e.Record.RequestNumber,
		e.Record.Description,
		e.Outcome,
		e.Detail,
		e.WorkbookPath,
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert activity: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (r *SQLiteRepository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, occurred_at, operation, category, approval_date,
			request_number, description, outcome, detail, workbook_path
		FROM activity
		ORDER BY rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e        Entry
			at       string
			category string
		)
		if err := rows.Scan(&e.ID, &at, &e.Operation, &category, &e.Record.ApprovalDate,
			&e.Record.RequestNumber, &e.Record.Description, &e.Outcome, &e.Detail, &e.WorkbookPath); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Category = core.Category(category)
		if e.OccurredAt, err = time.Parse(time.RFC3339Nano, at); err != nil {
			return nil, fmt.Errorf("parse occurred_at %q: %w", at, err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}
	return out, nil
}

// Count returns the number of journal entries with the given outcome, or all
// entries when outcome is empty.
func (r *SQLiteRepository) Count(ctx context.Context, outcome string) (int64, error) {
	var n int64
	var err error
	if outcome == "" {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity`).Scan(&n)
	} else {
		err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity WHERE outcome = ?`, outcome).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count activity: %w", err)
	}
	return n, nil
}
