package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"nctracker/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "journal.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	base := time.Date(2025, 8, 30, 9, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first, err := repo.Record(ctx, Entry{
		Operation: OpAppend,
		Category:  core.WorkPermit,
		Record:    core.Record{ApprovalDate: "2025-08-30", RequestNumber: "CR/ENP/1234", Description: "Router upgrade"},
		Outcome:   OutcomeOK,
	})
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if first.ID == "" || !first.OccurredAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("id/time not assigned: %+v", first)
	}
	if _, err := repo.Record(ctx, Entry{Operation: OpAppend, Category: core.ChangeRequest, Outcome: OutcomeStorageError, Detail: "file is open"}); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := repo.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].Outcome != OutcomeStorageError || got[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", got)
	}
	if got[1].Record != first.Record || got[1].Category != core.WorkPermit {
		t.Fatalf("entry not round-tripped: %+v", got[1])
	}

	limited, _ := repo.Recent(ctx, 1)
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}

	if n, _ := repo.Count(ctx, ""); n != 2 {
		t.Fatalf("count all = %d", n)
	}
	if n, _ := repo.Count(ctx, OutcomeOK); n != 1 {
		t.Fatalf("count ok = %d", n)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := repo.Record(ctx, Entry{Operation: OpEnsure, Outcome: OutcomeOK, WorkbookPath: "/tmp/x.xlsx"}); err != nil {
		t.Fatalf("record: %v", err)
	}
	repo.Close()

	repo, err = NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer repo.Close()
	got, err := repo.Recent(ctx, 0)
	if err != nil || len(got) != 1 || got[0].WorkbookPath != "/tmp/x.xlsx" {
		t.Fatalf("unexpected entries after reopen: %+v %v", got, err)
	}
}

func TestRunMigrationsVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	v, err := RunMigrations(path)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if v != 2 {
		t.Fatalf("expected schema version 2, got %d", v)
	}
	if v2, err := RunMigrations(path); err != nil || v2 != v {
		t.Fatalf("second run: %d %v", v2, err)
	}
}
