package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"nctracker/internal/config"
	"nctracker/internal/core"
)

func TestBackendType_IsValid(t *testing.T) {
	tests := []struct {
		bt   BackendType
		want bool
	}{
		{XLSXBackend, true},
		{MemoryBackend, true},
		{"sheets", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := tt.bt.IsValid(); got != tt.want {
			t.Errorf("%q.IsValid() = %v, want %v", tt.bt, got, tt.want)
		}
	}
}

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		FilePath:             "/tmp/x.xlsx",
		DataDir:              "/tmp",
		RequireRequestNumber: true,
		DescriptionSeparator: " ",
		DataBackend:          "xlsx",
		JournalEnabled:       false,
		JournalDBPath:        "/tmp/journal.db",
	}
	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if cfg.Type != XLSXBackend || cfg.FilePath != app.FilePath || cfg.DataDirectory != "/tmp" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.JournalDBPath != "" {
		t.Fatalf("disabled journal must not carry a path: %q", cfg.JournalDBPath)
	}
	if p := cfg.Policy(); !p.RequireRequestNumber || p.Separator != " " {
		t.Fatalf("unexpected policy: %+v", p)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
	app.DataBackend = "sheets"
	if _, err := FromAppConfig(app); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{Type: XLSXBackend}).Validate(); err == nil || !strings.Contains(err.Error(), "workbook path") {
		t.Fatalf("expected missing path error, got %v", err)
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Fatalf("memory needs no path: %v", err)
	}
}

func TestCreateBackend_XLSXWithJournal(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := Config{
		Type:                 XLSXBackend,
		FilePath:             filepath.Join(dir, "network_changes.xlsx"),
		DescriptionSeparator: core.DefaultSeparator,
		JournalDBPath:        filepath.Join(dir, "journal.db"),
	}

	result, err := NewFactory(nil).CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer result.Cleanup()

	svc := result.Service
	if svc.Store().Path() != cfg.FilePath {
		t.Fatalf("unexpected path %q", svc.Store().Path())
	}
	if err := svc.Startup(ctx); err != nil {
		t.Fatalf("startup: %v", err)
	}
	if _, err := svc.AddRecord(ctx, core.ChangeRequest, core.Record{ApprovalDate: "2025-08-30", Description: "a\nb"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	hist, err := svc.History(ctx, 5)
	if err != nil || len(hist) != 1 {
		t.Fatalf("expected one journal entry, got %v %v", hist, err)
	}
	if _, err := os.Stat(cfg.JournalDBPath); err != nil {
		t.Fatalf("journal not created: %v", err)
	}
}

func TestCreateBackend_MemoryWithoutJournal(t *testing.T) {
	ctx := context.Background()
	result, err := NewFactory(nil).CreateBackend(ctx, Config{
		Type:                 MemoryBackend,
		DescriptionSeparator: core.DefaultSeparator,
		DataDirectory:        t.TempDir(),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got := result.Service.Store().Path(); got != "memory" {
		t.Fatalf("unexpected path %q", got)
	}
	hist, err := result.Service.History(ctx, 5)
	if err != nil || hist != nil {
		t.Fatalf("expected no journal, got %v %v", hist, err)
	}
	if err := result.Cleanup(); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}

func TestCreateBackend_BrokenJournalIsSkipped(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:                 XLSXBackend,
		FilePath:             filepath.Join(dir, "network_changes.xlsx"),
		DescriptionSeparator: core.DefaultSeparator,
		JournalDBPath:        filepath.Join(blocker, "journal.db"),
	})
	if err != nil {
		t.Fatalf("a broken journal must not block the tracker: %v", err)
	}
	hist, _ := result.Service.History(context.Background(), 5)
	if hist != nil {
		t.Fatalf("expected journal to be disabled, got %v", hist)
	}
}
