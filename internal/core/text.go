// Package core provides the record model of the tracker.
//
// This file contains the input parsing helpers shared by the stores and the
// command line: approval dates, categories and multi-line descriptions.
package core

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// ParseDate parses a strict YYYY-MM-DD approval date.
//
// Only the canonical layout is accepted: the value must round-trip through
// DateLayout unchanged, so "2025-8-30" and "30-08-2025" are rejected.
//
// Examples:
//
//	ParseDate("2025-08-30") -> 2025-08-30, nil
//	ParseDate("30-08-2025") -> ErrInvalidDate
//	ParseDate("2025-02-30") -> ErrInvalidDate
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrEmptyDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil || t.Format(DateLayout) != s {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

// ParseCategory maps user input to a Category.
//
// Besides the sheet names it accepts the short codes used on the forms
// ("cr", "wp") and their dashed spellings, case-insensitively.
func ParseCategory(s string) (Category, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "", "_", "", " ", "").Replace(key)
	switch key {
	case "cr", "changerequest":
		return ChangeRequest, nil
	case "wp", "workpermit":
		return WorkPermit, nil
	default:
		return "", &ValidationError{Field: "category", Err: ErrUnknownCategory}
	}
}

// NormalizeDescription collapses multi-line text into a single line.
//
// Line endings are unified, each line is trimmed, blank lines are dropped
// and the remaining lines are joined with sep. The result is NFC normalized
// so the same text typed on different systems compares equal.
//
// Examples:
//
//	NormalizeDescription("line1\nline2", ", ")          -> "line1, line2"
//	NormalizeDescription("  a \r\n\r\n b  ", " ")       -> "a b"
//	NormalizeDescription("\n\n", ", ")                  -> ""
func NormalizeDescription(text, sep string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	parts := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts = append(parts, line)
	}
	joined := strings.Join(parts, sep)
	if !utf8.ValidString(joined) {
		// Left as is so validation reports it.
		return joined
	}
	return norm.NFC.String(joined)
}
