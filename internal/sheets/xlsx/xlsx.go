// Package xlsx stores tracker records in a local Excel workbook, one sheet
// per category. The workbook is reopened on every call; nothing is cached
// between operations.
package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"nctracker/internal/core"
	ports "nctracker/internal/sheets"
)

// DefaultFileName is the workbook name used when only a directory is known.
const DefaultFileName = "network_changes.xlsx"

// defaultSheet is the sheet excelize adds to every new workbook.
const defaultSheet = "Sheet1"

type Store struct {
	path   string
	policy core.Policy
	logger *slog.Logger
}

// Ensure interface conformance
var _ ports.Store = (*Store)(nil)

// New returns a store for the workbook at path. Nothing is touched on disk
// until the first operation.
func New(path string, policy core.Policy, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	if policy.Separator == "" {
		policy.Separator = core.DefaultSeparator
	}
	return &Store{path: path, policy: policy, logger: logger}
}

func (s *Store) Path() string {
	return s.path
}

// EnsureStore creates the workbook and any missing category sheet, repairs
// blank headers and migrates legacy sheets. The file is only saved when
// something changed, so repeated calls leave it untouched.
func (s *Store) EnsureStore(ctx context.Context) error {
	f, created, err := s.openOrCreate()
	if err != nil {
		return err
	}
	defer f.Close()

	dirty, err := s.ensureSheets(ctx, f, created)
	if err != nil {
		return &core.StorageError{Op: "prepare", Path: s.path, Err: err}
	}
	if !dirty {
		return nil
	}
	if err := s.save(f, "create"); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Workbook prepared", "path", s.path, "created", created)
	return nil
}

// MigrateLegacySchema upgrades the category sheet from the two column layout
// (date, description) to the current one. It reports whether cells were
// moved. A missing file or sheet is not an error: there is nothing to move.
func (s *Store) MigrateLegacySchema(ctx context.Context, c core.Category) (bool, error) {
	if err := c.Validate(); err != nil {
		return false, err
	}
	f, err := s.openExisting()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, &core.StorageError{Op: "open", Path: s.path, Err: err}
	}
	defer f.Close()

	if !hasSheet(f, c.SheetName()) {
		return false, nil
	}
	outcome, err := s.migrateSheet(ctx, f, c.SheetName())
	if err != nil {
		return false, &core.StorageError{Op: "migrate", Path: s.path, Err: err}
	}
	if outcome == legacyNone {
		return false, nil
	}
	if err := s.save(f, "migrate"); err != nil {
		return false, err
	}
	return outcome == legacyMoved, nil
}

// Append validates the record and writes it as the next row of the category
// sheet. The workbook is saved before Append returns.
//
// The returned record is what was written. Its description may differ from
// the input beyond line breaks: it is NFC normalized, so a decomposed "é"
// comes back precomposed. Text a cell cannot hold unchanged is rejected.
func (s *Store) Append(ctx context.Context, c core.Category, r core.Record) (core.Record, error) {
	if err := c.Validate(); err != nil {
		return core.Record{}, err
	}
	rec, err := r.Prepare(s.policy)
	if err != nil {
		return core.Record{}, err
	}

	f, created, err := s.openOrCreate()
	if err != nil {
		return core.Record{}, err
	}
	defer f.Close()

	if _, err := s.ensureSheets(ctx, f, created); err != nil {
		return core.Record{}, &core.StorageError{Op: "prepare", Path: s.path, Err: err}
	}

	sheet := c.SheetName()
	row, err := nextRow(f, sheet)
	if err != nil {
		return core.Record{}, &core.StorageError{Op: "read", Path: s.path, Err: err}
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return core.Record{}, &core.StorageError{Op: "append", Path: s.path, Err: err}
	}
	values := rec.Row()
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return core.Record{}, &core.StorageError{Op: "append", Path: s.path, Err: err}
	}
	if err := s.save(f, "save"); err != nil {
		return core.Record{}, err
	}

	s.logger.InfoContext(ctx, "Record appended",
		"category", c.String(),
		"row", row,
		"approval_date", rec.ApprovalDate,
		"request_number", rec.RequestNumber)
	return rec, nil
}

// List returns the records of the category in sheet order, header excluded.
func (s *Store) List(ctx context.Context, c core.Category) ([]core.Record, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	f, err := s.openExisting()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []core.Record{}, nil
		}
		return nil, &core.StorageError{Op: "open", Path: s.path, Err: err}
	}
	defer f.Close()

	sheet := c.SheetName()
	if !hasSheet(f, sheet) {
		return []core.Record{}, nil
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &core.StorageError{Op: "read", Path: s.path, Err: err}
	}
	raw, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, &core.StorageError{Op: "read", Path: s.path, Err: err}
	}

	out := make([]core.Record, 0, len(rows))
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		date, req, desc := cellAt(row, 0), cellAt(row, 1), cellAt(row, 2)
		if strings.TrimSpace(date) == "" && strings.TrimSpace(req) == "" && strings.TrimSpace(desc) == "" {
			continue
		}
		var rawDate string
		if i < len(raw) {
			rawDate = cellAt(raw[i], 0)
		}
		out = append(out, core.Record{
			ApprovalDate:  dateCell(date, rawDate),
			RequestNumber: req,
			Description:   desc,
		})
	}
	s.logger.DebugContext(ctx, "Records listed", "category", c.String(), "count", len(out))
	return out, nil
}

func (s *Store) openExisting() (*excelize.File, error) {
	if _, err := os.Stat(s.path); err != nil {
		return nil, err
	}
	return excelize.OpenFile(s.path)
}

// openOrCreate opens the workbook, or returns a fresh one when the file does
// not exist yet. created is true for the fresh case.
func (s *Store) openOrCreate() (f *excelize.File, created bool, err error) {
	f, err = s.openExisting()
	if err == nil {
		return f, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, &core.StorageError{Op: "open", Path: s.path, Err: err}
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, false, &core.StorageError{Op: "create directory", Path: dir, Err: err}
		}
	}
	return excelize.NewFile(), true, nil
}

// ensureSheets brings every category sheet to the current schema and reports
// whether the workbook changed.
func (s *Store) ensureSheets(ctx context.Context, f *excelize.File, created bool) (bool, error) {
	dirty := created
	for _, c := range core.Categories() {
		name := c.SheetName()
		if !hasSheet(f, name) {
			if _, err := f.NewSheet(name); err != nil {
				return false, fmt.Errorf("create sheet %s: %w", name, err)
			}
			if err := writeHeader(f, name); err != nil {
				return false, err
			}
			s.logger.InfoContext(ctx, "Sheet created", "sheet", name)
			dirty = true
			continue
		}
		changed, err := s.repairHeader(ctx, f, name)
		if err != nil {
			return false, err
		}
		dirty = dirty || changed
	}

	if created && hasSheet(f, defaultSheet) {
		if err := f.DeleteSheet(defaultSheet); err != nil {
			return false, fmt.Errorf("remove %s: %w", defaultSheet, err)
		}
		idx, err := f.GetSheetIndex(core.ChangeRequest.SheetName())
		if err != nil {
			return false, err
		}
		f.SetActiveSheet(idx)
	}
	return dirty, nil
}

// repairHeader writes the header of an existing sheet when it is blank,
// migrates the legacy layout, and otherwise only fills blank header cells so
// data positions are never touched.
func (s *Store) repairHeader(ctx context.Context, f *excelize.File, sheet string) (bool, error) {
	head, err := headerCells(f, sheet)
	if err != nil {
		return false, err
	}
	if head[0] == "" && head[1] == "" && head[2] == "" {
		return true, writeHeader(f, sheet)
	}

	outcome, err := s.migrateSheet(ctx, f, sheet)
	if err != nil {
		return false, err
	}
	if outcome != legacyNone {
		return true, nil
	}

	changed := false
	for i, want := range core.Header() {
		if head[i] != "" {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellStr(sheet, cell, want); err != nil {
			return false, err
		}
		changed = true
	}
	return changed, nil
}

func hasSheet(f *excelize.File, name string) bool {
	idx, err := f.GetSheetIndex(name)
	return err == nil && idx != -1
}

func writeHeader(f *excelize.File, sheet string) error {
	header := make([]any, 0, 3)
	for _, h := range core.Header() {
		header = append(header, h)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header of %s: %w", sheet, err)
	}
	return nil
}

// headerCells returns the trimmed values of A1:C1.
func headerCells(f *excelize.File, sheet string) ([3]string, error) {
	var out [3]string
	for i := range out {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			return out, fmt.Errorf("read %s!%s: %w", sheet, cell, err)
		}
		out[i] = strings.TrimSpace(v)
	}
	return out, nil
}

// nextRow returns the 1-based row after the last row holding any value.
func nextRow(f *excelize.File, sheet string) (int, error) {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	last := 1 // header
	for i, row := range rows {
		for _, v := range row {
			if strings.TrimSpace(v) != "" {
				last = max(last, i+1)
				break
			}
		}
	}
	return last + 1, nil
}

func cellAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// dateCell renders an approval date cell. Rows written by this package hold
// text; rows typed in Excel usually hold a serial date whose formatted value
// depends on the cell style, so the raw serial is converted instead.
func dateCell(formatted, raw string) string {
	formatted = strings.TrimSpace(formatted)
	if _, err := core.ParseDate(formatted); err == nil {
		return formatted
	}
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == formatted {
		return formatted
	}
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil || serial <= 0 {
		return formatted
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return formatted
	}
	return t.Format(core.DateLayout)
}
