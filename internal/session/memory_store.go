package session

import (
	"context"
	"sync"

	"feira/internal/models"
)

// MemoryStore is an in-memory implementation of TokenStore.
type MemoryStore struct {
	sessions map[models.Role]Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[models.Role]Session),
	}
}

func (m *MemoryStore) Load(_ context.Context, role models.Role) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[role]
	if !ok {
		return Session{}, ErrNoSession
	}
	return s, nil
}

func (m *MemoryStore) Save(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[s.Role] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.sessions, role)
	return nil
}
