package xlsx

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"nctracker/internal/core"
)

type legacyOutcome int

const (
	legacyNone legacyOutcome = iota
	// legacyMoved: a request number column was inserted at B.
	legacyMoved
	// legacyHeadersOnly: column C already held data, only the headers were
	// rewritten and no cell was moved.
	legacyHeadersOnly
)

// migrateSheet detects the two column layout
//
//	A1 = "Approval Date", B1 = "Description of Work", C1 blank
//
// and inserts an empty request number column before the description. Sheets
// that do not match are left alone, which makes the migration idempotent.
func (s *Store) migrateSheet(ctx context.Context, f *excelize.File, sheet string) (legacyOutcome, error) {
	head, err := headerCells(f, sheet)
	if err != nil {
		return legacyNone, err
	}
	if head[0] != core.HeaderApprovalDate || head[1] != core.HeaderDescription || head[2] != "" {
		return legacyNone, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return legacyNone, fmt.Errorf("read %s: %w", sheet, err)
	}
	for i := 1; i < len(rows); i++ {
		if strings.TrimSpace(cellAt(rows[i], 2)) == "" {
			continue
		}
		if err := setCells(f, sheet, map[string]string{
			"B1": core.HeaderRequestNumber,
			"C1": core.HeaderDescription,
		}); err != nil {
			return legacyNone, err
		}
		s.logger.WarnContext(ctx, "Legacy sheet has data in column C, headers updated without moving cells",
			"sheet", sheet, "row", i+1)
		return legacyHeadersOnly, nil
	}

	if err := f.InsertCols(sheet, "B", 1); err != nil {
		return legacyNone, fmt.Errorf("insert request number column in %s: %w", sheet, err)
	}
	if err := setCells(f, sheet, map[string]string{
		"B1": core.HeaderRequestNumber,
		"C1": core.HeaderDescription,
	}); err != nil {
		return legacyNone, err
	}
	s.logger.InfoContext(ctx, "Legacy sheet migrated", "sheet", sheet, "rows", max(len(rows)-1, 0))
	return legacyMoved, nil
}

func setCells(f *excelize.File, sheet string, cells map[string]string) error {
	for cell, v := range cells {
		if err := f.SetCellStr(sheet, cell, v); err != nil {
			return fmt.Errorf("write %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}
