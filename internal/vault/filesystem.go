package vault

import (
	"os"
	"path/filepath"

	"github.com/islero/historyvault/internal/vaulterrors"
)

// fileSystem is the file-I/O abstraction seam sanctioned by spec.md §9:
// tests can substitute an in-memory fake instead of touching the real
// filesystem (the package's current tests use osFileSystem).
type fileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, data []byte, autoCreateDir bool) error
	Remove(path string) error
	RemoveAll(path string) error
	MkdirAll(path string) error
	Exists(path string) bool
}

// osFileSystem is the production fileSystem backed by the real OS.
type osFileSystem struct{}

func (osFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic writes data to a temporary file in the same directory
// as path, then renames it into place. Concurrent readers observe either
// the pre-write or post-write state of path, never a torn read, because
// os.Rename is atomic on the same filesystem (spec.md §5).
//
// autoCreateDir mirrors spec.md §6's engine-level auto_create_directories
// option: when false, a missing target directory is a hard error instead
// of being silently created.
func (osFileSystem) WriteFileAtomic(path string, data []byte, autoCreateDir bool) error {
	dir := filepath.Dir(path)
	if autoCreateDir {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	} else if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return vaulterrors.ErrDirectoryMissing
		}
		return err
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

func (osFileSystem) Remove(path string) error {
	err := os.Remove(path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

func (osFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

func (osFileSystem) MkdirAll(path string) error {
	return os.MkdirAll(path, 0o755)
}

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
