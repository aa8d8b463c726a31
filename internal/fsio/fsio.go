// Package fsio provides the raw file-system operations the store persists
// through.
package fsio

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/maruel/ksid"
)

// FS is the set of file operations a store needs.
//
// ReadFile must return an error matching fs.ErrNotExist when the file is
// missing. WriteFile replaces the whole content. Remove succeeds when the file
// is already gone.
type FS interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Remove(path string) error
	Exists(path string) (bool, error)
}

// OS implements FS on the local file system.
type OS struct {
	// Atomic writes to a temporary sibling file then renames it over the
	// destination, so readers never observe a partially written file.
	Atomic bool
}

// ReadFile returns the content of path.
func (OS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path) //nolint:gosec // G304: path is supplied by the store owner
}

// WriteFile truncates path and writes data to it.
func (o OS) WriteFile(path string, data []byte) error {
	if !o.Atomic {
		if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: data files are not secrets
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		return nil
	}
	tmp := path + "." + ksid.NewID().String() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil { //nolint:gosec // G306: data files are not secrets
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Remove deletes path. A missing file is not an error.
func (OS) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether path exists.
func (OS) Exists(path string) (bool, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
