package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestNewJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentApp, Output: &buf})

	logger.WithComponent(ComponentStore).Info("Record appended", FieldCategory, "WorkPermit")
	out := buf.String()
	if !strings.Contains(out, `"component":"store"`) || !strings.Contains(out, `"category":"WorkPermit"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	if strings.Count(out, `"component"`) != 1 {
		t.Fatalf("component attribute duplicated: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelWarn, Output: &buf})
	logger.Info("hidden")
	logger.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{"debug": slog.LevelDebug, "": slog.LevelInfo, "WARN": slog.LevelWarn, "error": slog.LevelError}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestFromContext(t *testing.T) {
	logger := New(DefaultConfig()).WithComponent(ComponentCLI)
	ctx := WithLogger(context.Background(), logger)
	if FromContext(ctx) != logger {
		t.Fatal("logger not returned from context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected fallback logger")
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithOperation("append").WithCategory("ChangeRequest").WithPath("/x.xlsx").WithError(nil)
	if len(f.ToSlice()) != 6 {
		t.Fatalf("unexpected fields: %v", f)
	}
}
