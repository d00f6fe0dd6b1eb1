// Package store persists the task document. The document is the unit
// of read and write: every backend exposes whole-document LoadAll and
// SaveAll, and scoped mutations are built on top of them elsewhere.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/taskline-app/taskline/internal/model"
)

var (
	// ErrCorruptData means the backing medium is reachable but the
	// stored content is not a valid task document.
	ErrCorruptData = errors.New("corrupt task document")

	// ErrUnavailable means the backing medium could not be read or
	// written.
	ErrUnavailable = errors.New("storage unavailable")
)

// Store owns the canonical task document.
//
// LoadAll returns the full document, or an empty slice if no document
// exists yet. The returned slice is always normalized (non-nil, every
// task with a non-nil subtask list).
//
// SaveAll overwrites the stored document. A concurrent reader observes
// either the old document or the new one in full, never a partial
// write. There is no isolation beyond that: concurrent load-mutate-save
// cycles race and the last writer wins.
type Store interface {
	LoadAll(ctx context.Context) ([]model.Task, error)
	SaveAll(ctx context.Context, tasks []model.Task) error
}

// decode parses raw document bytes, treating empty content as an empty
// document the way the wire format always has.
func decode(raw []byte, strict bool) ([]model.Task, error) {
	if len(raw) == 0 {
		return []model.Task{}, nil
	}
	var tasks []model.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
	}
	if strict {
		if err := validateDocument(raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptData, err)
		}
	}
	return model.Normalize(tasks), nil
}

// encode serializes the document. Indentation is cosmetic; readers must
// not rely on it.
func encode(tasks []model.Task) ([]byte, error) {
	return json.MarshalIndent(model.Normalize(tasks), "", "  ")
}
