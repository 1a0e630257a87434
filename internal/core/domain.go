package core

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// DateLayout is the only accepted approval date layout (YYYY-MM-DD).
const DateLayout = "2006-01-02"

const (
	ChangeRequest Category = "ChangeRequest"
	WorkPermit    Category = "WorkPermit"
)

// Header cells of the current three column schema.
const (
	HeaderApprovalDate  = "Approval Date"
	HeaderRequestNumber = "Request Number"
	HeaderDescription   = "Description of Work"
)

// DefaultSeparator joins the lines of a multi-line description.
const DefaultSeparator = ", "

// MaxCellChars is the longest text a spreadsheet cell holds. Longer values
// are cut when the workbook is written.
const MaxCellChars = 32767

type (
	// Category selects the sheet a record belongs to.
	Category string

	Record struct {
		ApprovalDate  string // YYYY-MM-DD
		RequestNumber string
		Description   string
	}

	// Policy holds the caller-side rules applied before a record is stored.
	Policy struct {
		RequireRequestNumber bool
		Separator            string
	}
)

var (
	ErrEmptyDate          = errors.New("approval date is required")
	ErrInvalidDate        = errors.New("approval date must use the YYYY-MM-DD format")
	ErrEmptyDescription   = errors.New("description of work is required")
	ErrEmptyRequestNumber = errors.New("request number is required")
	ErrUnknownCategory    = errors.New("unknown category")
	ErrTextTooLong        = errors.New("text exceeds the 32767 character cell limit")
	ErrInvalidText        = errors.New("text contains control characters or invalid UTF-8")
)

// Header returns the header row of the current schema.
func Header() []string {
	return []string{HeaderApprovalDate, HeaderRequestNumber, HeaderDescription}
}

// Categories returns every category in sheet order.
func Categories() []Category {
	return []Category{ChangeRequest, WorkPermit}
}

// SheetName returns the name of the sheet backing the category.
func (c Category) SheetName() string {
	return string(c)
}

func (c Category) String() string {
	return string(c)
}

func (c Category) Validate() error {
	switch c {
	case ChangeRequest, WorkPermit:
		return nil
	default:
		return &ValidationError{Field: "category", Err: ErrUnknownCategory}
	}
}

// DefaultPolicy returns the policy used when nothing is configured:
// request number optional, lines joined with DefaultSeparator.
func DefaultPolicy() Policy {
	return Policy{Separator: DefaultSeparator}
}

// Normalize trims the fields and collapses the description to a single line.
func (r Record) Normalize(p Policy) Record {
	sep := p.Separator
	if sep == "" {
		sep = DefaultSeparator
	}
	return Record{
		ApprovalDate:  strings.TrimSpace(r.ApprovalDate),
		RequestNumber: strings.TrimSpace(r.RequestNumber),
		Description:   NormalizeDescription(r.Description, sep),
	}
}

// Validate checks an already normalized record against the policy.
func (r Record) Validate(p Policy) error {
	if strings.TrimSpace(r.ApprovalDate) == "" {
		return &ValidationError{Field: "approval_date", Err: ErrEmptyDate}
	}
	if _, err := ParseDate(r.ApprovalDate); err != nil {
		return &ValidationError{Field: "approval_date", Err: err}
	}
	if p.RequireRequestNumber && strings.TrimSpace(r.RequestNumber) == "" {
		return &ValidationError{Field: "request_number", Err: ErrEmptyRequestNumber}
	}
	if strings.TrimSpace(r.Description) == "" {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if strings.ContainsAny(r.Description, "\r\n") {
		return &ValidationError{Field: "description", Err: errors.New("description must be a single line")}
	}
	if err := checkCellText(r.RequestNumber); err != nil {
		return &ValidationError{Field: "request_number", Err: err}
	}
	if err := checkCellText(r.Description); err != nil {
		return &ValidationError{Field: "description", Err: err}
	}
	return nil
}

// checkCellText rejects text the workbook could not store unchanged: XML
// cannot carry C0 controls other than tab, U+FFFE or U+FFFF, and cells are
// capped at MaxCellChars.
func checkCellText(s string) error {
	if !utf8.ValidString(s) {
		return ErrInvalidText
	}
	n := 0
	for _, r := range s {
		if (r < 0x20 && r != '\t') || r == 0xFFFE || r == 0xFFFF {
			return ErrInvalidText
		}
		n++
	}
	if n > MaxCellChars {
		return ErrTextTooLong
	}
	return nil
}

// Prepare normalizes the record and validates the result.
func (r Record) Prepare(p Policy) (Record, error) {
	n := r.Normalize(p)
	if err := n.Validate(p); err != nil {
		return Record{}, err
	}
	return n, nil
}

// Row returns the record as sheet cells in column order.
func (r Record) Row() []any {
	return []any{r.ApprovalDate, r.RequestNumber, r.Description}
}
