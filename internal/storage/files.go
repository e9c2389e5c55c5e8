package storage

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Files reads and writes whole documents by path.
type Files interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte) error
	Exists(path string) (bool, error)
}

// OSFiles is the local-disk Files implementation.
//
// WriteFile replaces the target atomically (temp file + rename in the same
// directory) so readers never observe a half-written document.
type OSFiles struct {
	// Perm is applied to written files; 0 means 0o644.
	Perm os.FileMode
}

func (f OSFiles) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }

func (f OSFiles) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f OSFiles) WriteFile(path string, data []byte) error {
	perm := f.Perm
	if perm == 0 {
		perm = 0o644
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
