package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps sessions for the life of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]Session
	now   func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: map[string]Session{}, now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[s.ID] = *s
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.items[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired(m.now()) {
		m.mu.Lock()
		delete(m.items, id)
		m.mu.Unlock()
		return nil, ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

// Len reports the number of stored sessions, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
