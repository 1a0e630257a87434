package memory

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"nctracker/internal/core"
	ports "nctracker/internal/sheets"
)

// Store keeps records in process memory. It is used for dry runs and tests;
// nothing survives a restart.
type Store struct {
	mu     sync.Mutex
	policy core.Policy
	items  map[core.Category][]core.Record
}

var _ ports.Store = (*Store)(nil)

func New(policy core.Policy) *Store {
	if policy.Separator == "" {
		policy.Separator = core.DefaultSeparator
	}
	return &Store{policy: policy, items: map[core.Category][]core.Record{}}
}

// NewFromFiles seeds the store from base/seed_<Category>.txt. Each line holds
// "date|request number|description"; blank lines and # comments are skipped,
// as are lines that fail validation.
func NewFromFiles(base string, policy core.Policy) *Store {
	s := New(policy)
	for _, c := range core.Categories() {
		for _, line := range readLines(filepath.Join(base, "seed_"+c.SheetName()+".txt")) {
			parts := strings.SplitN(line, "|", 3)
			if len(parts) != 3 {
				continue
			}
			_, _ = s.Append(context.Background(), c, core.Record{
				ApprovalDate:  parts[0],
				RequestNumber: parts[1],
				Description:   parts[2],
			})
		}
	}
	return s
}

func (s *Store) EnsureStore(_ context.Context) error {
	return nil
}

// MigrateLegacySchema is a no-op: memory never holds the legacy layout.
func (s *Store) MigrateLegacySchema(_ context.Context, c core.Category) (bool, error) {
	return false, c.Validate()
}

// Append stores the normalized record.
func (s *Store) Append(_ context.Context, c core.Category, r core.Record) (core.Record, error) {
	if err := c.Validate(); err != nil {
		return core.Record{}, err
	}
	rec, err := r.Prepare(s.policy)
	if err != nil {
		return core.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c] = append(s.items[c], rec)
	return rec, nil
}

// List returns a copy of the records of the category.
func (s *Store) List(_ context.Context, c core.Category) ([]core.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Record{}, s.items[c]...), nil
}

func (s *Store) Export(_ context.Context, _ string, _ bool) (string, error) {
	return "", &core.StorageError{Op: "export", Path: s.Path(), Err: errors.New("memory backend has no file to export")}
}

func (s *Store) Path() string {
	return "memory"
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
