package core

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	// ErrFileLocked reports that another application holds the workbook open.
	ErrFileLocked = errors.New("file is open in another application")
	// ErrExportExists reports an export target that would be overwritten.
	ErrExportExists = errors.New("export target already exists")
)

// ValidationError is returned when a record is rejected before anything is
// written. The stored state is never touched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Err.Error()
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageError is returned when the workbook cannot be opened, read or
// written. The operation is abandoned and no partial row is written.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Guidance returns a hint the user can act on before retrying.
func (e *StorageError) Guidance() string {
	switch {
	case errors.Is(e.Err, ErrFileLocked):
		return fmt.Sprintf("Close the workbook in the other application and try again:\n%s", e.Path)
	case errors.Is(e.Err, fs.ErrPermission):
		return fmt.Sprintf("The file or its folder is not writable:\n%s\nMove the workbook to a writable folder (e.g. Documents) and try again.", e.Path)
	case errors.Is(e.Err, ErrExportExists):
		return fmt.Sprintf("%s already exists. Use --force to overwrite it.", e.Path)
	default:
		return fmt.Sprintf("Could not access the workbook %s: %v", e.Path, e.Err)
	}
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsStorage reports whether err is, or wraps, a StorageError.
func IsStorage(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
