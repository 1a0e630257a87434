package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldCategory      = "category"
	FieldPath          = "path"
	FieldApprovalDate  = "approval_date"
	FieldRequestNumber = "request_number"
	FieldBackend       = "backend"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentCLI     = "cli"
	ComponentStore   = "store"
	ComponentJournal = "journal"
	ComponentBackend = "backend"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithCategory adds the sheet category
func (f LogFields) WithCategory(category string) LogFields {
	f[FieldCategory] = category
	return f
}

// WithPath adds the workbook path
func (f LogFields) WithPath(path string) LogFields {
	f[FieldPath] = path
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
