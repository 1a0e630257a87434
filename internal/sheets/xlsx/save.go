package xlsx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"nctracker/internal/core"
)

// save writes the workbook next to its destination and renames it into
// place, so a failed write never leaves a truncated file behind.
func (s *Store) save(f *excelize.File, op string) error {
	if lock, ok := ownerFile(s.path); ok {
		s.logger.Warn("Workbook is open elsewhere", "path", s.path, "lock_file", lock)
		return &core.StorageError{Op: op, Path: s.path, Err: core.ErrFileLocked}
	}
	err := writeFileAtomic(s.path, fileMode(s.path), func(w io.Writer) error {
		_, err := f.WriteTo(w)
		return err
	})
	if err != nil {
		return &core.StorageError{Op: op, Path: s.path, Err: err}
	}
	return nil
}

// Export copies the workbook to destDir under the same file name.
func (s *Store) Export(ctx context.Context, destDir string, overwrite bool) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", &core.StorageError{Op: "export", Path: s.path, Err: err}
	}
	dest := filepath.Join(destDir, filepath.Base(s.path))
	if samePath(dest, s.path) {
		return "", &core.StorageError{Op: "export", Path: dest, Err: errors.New("destination is the workbook itself")}
	}
	if _, err := os.Stat(dest); err == nil && !overwrite {
		return "", &core.StorageError{Op: "export", Path: dest, Err: core.ErrExportExists}
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", &core.StorageError{Op: "export", Path: destDir, Err: err}
	}

	err = writeFileAtomic(dest, info.Mode().Perm(), func(w io.Writer) error {
		src, err := os.Open(s.path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
	if err != nil {
		return "", &core.StorageError{Op: "export", Path: dest, Err: err}
	}
	_ = os.Chtimes(dest, info.ModTime(), info.ModTime())

	s.logger.InfoContext(ctx, "Workbook exported", "from", s.path, "to", dest)
	return dest, nil
}

// ownerFile reports the lock file an office suite keeps beside an open
// workbook: "~$name" for Excel, ".~lock.name#" for LibreOffice.
func ownerFile(path string) (string, bool) {
	dir, name := filepath.Split(path)
	for _, candidate := range []string{
		filepath.Join(dir, "~$"+name),
		filepath.Join(dir, ".~lock."+name+"#"),
	} {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

func writeFileAtomic(path string, perm fs.FileMode, write func(io.Writer) error) (err error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if err = write(tmp); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace: %w", err)
	}
	return nil
}

func fileMode(path string) fs.FileMode {
	if info, err := os.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0o644
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
