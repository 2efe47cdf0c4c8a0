package persist

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps the record document in a single file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend writing to path. The parent directory is
// created on first save.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the backing file path.
func (b *FileBackend) Path() string {
	return b.path
}

// Describe implements Backend.
func (b *FileBackend) Describe() string {
	return "file:" + b.path
}

// Load implements Backend.
func (b *FileBackend) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(b.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", b.path, err)
	}
	return data, nil
}

// Save implements Backend. The file is replaced atomically so a reader
// never observes a half-written document.
func (b *FileBackend) Save(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save %s: create directory: %w", b.path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("save %s: create temp: %w", b.path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // No-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: write: %w", b.path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("save %s: sync: %w", b.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save %s: close: %w", b.path, err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		return fmt.Errorf("save %s: rename: %w", b.path, err)
	}
	return nil
}
