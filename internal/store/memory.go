package store

import (
	"context"
	"sync"

	"github.com/taskline-app/taskline/internal/model"
)

// MemoryStore holds the document in memory. Used for tests and for
// running the server without any backing medium.
type MemoryStore struct {
	mu  sync.RWMutex
	raw []byte
}

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) LoadAll(_ context.Context) ([]model.Task, error) {
	s.mu.RLock()
	raw := s.raw
	s.mu.RUnlock()
	return decode(raw, false)
}

func (s *MemoryStore) SaveAll(_ context.Context, tasks []model.Task) error {
	raw, err := encode(tasks)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
	return nil
}

// Seed replaces the stored bytes directly, bypassing encoding. Lets
// tests stage malformed or legacy documents.
func (s *MemoryStore) Seed(raw []byte) {
	s.mu.Lock()
	s.raw = raw
	s.mu.Unlock()
}
