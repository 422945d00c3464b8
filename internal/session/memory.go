package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mardix/equiptest/internal/errs"
)

// MemoryRepo is the in-memory session repository used for unit tests and for
// running without Mongo. Get hands out deep copies; Save swaps the stored
// aggregate under the lock, so a commit is atomic with respect to readers.
type MemoryRepo struct {
	mu    sync.RWMutex
	store map[string]*Session
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{store: make(map[string]*Session)}
}

func (m *MemoryRepo) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, errs.ErrNotFound)
	}
	return s.Clone(), nil
}

func (m *MemoryRepo) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := s.Clone()
	cp.UpdatedAt = time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = cp.UpdatedAt
	}
	m.store[s.ID] = cp
	s.UpdatedAt = cp.UpdatedAt
	s.CreatedAt = cp.CreatedAt
	return nil
}
