package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/taskline-app/taskline/internal/model"
)

// FileStore keeps the task document in a single JSON file on local
// disk.
type FileStore struct {
	path   string
	strict bool
}

// NewFile creates a file-backed store. The parent directory is created
// if it does not exist; the document itself is created lazily on the
// first save.
func NewFile(path string, strict bool) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create data directory: %v", ErrUnavailable, err)
	}
	return &FileStore{path: path, strict: strict}, nil
}

func (s *FileStore) LoadAll(_ context.Context) ([]model.Task, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []model.Task{}, nil
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrUnavailable, s.path, err)
	}
	tasks, err := decode(raw, s.strict)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.path, err)
	}
	return tasks, nil
}

// SaveAll writes to a temp file in the same directory and renames it
// over the document, so a concurrent reader sees either the old
// document or the new one, never a torn write.
func (s *FileStore) SaveAll(_ context.Context, tasks []model.Task) error {
	raw, err := encode(tasks)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".tasks-*.json")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write temp file: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close temp file: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrUnavailable, s.path, err)
	}
	return nil
}
