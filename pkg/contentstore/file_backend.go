package contentstore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// FileBackend keeps document text as flat files under a blob directory.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(id string) string {
	// ids are uuids, safe as file names
	return filepath.Join(b.dir, id+".txt")
}

func (b *FileBackend) Get(ctx context.Context, id string) (string, bool, error) {
	data, err := os.ReadFile(b.path(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(data), true, nil
}

func (b *FileBackend) Put(ctx context.Context, id string, text string) error {
	return os.WriteFile(b.path(id), []byte(text), 0644)
}

func (b *FileBackend) Delete(ctx context.Context, id string) error {
	err := os.Remove(b.path(id))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
