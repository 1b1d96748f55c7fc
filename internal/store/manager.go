package store

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-sync/internal/auth"
)

// Manager hands out one store per authenticated session. Stores are created
// lazily, loaded once, and kept subscribed to the change stream until Close.
type Manager struct {
	deps Dependencies

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager constructs the registry.
func NewManager(deps Dependencies) *Manager {
	return &Manager{
		deps:   deps,
		stores: make(map[string]*Store),
	}
}

// ForSession returns the session's store, creating and starting it on first
// use. The initial load error is not fatal: the store surfaces it through
// Err() and recovers on the next reload.
func (m *Manager) ForSession(ctx context.Context, sess auth.Session) (*Store, error) {
	m.mu.Lock()
	if existing, ok := m.stores[sess.UserID]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.mu.Unlock()

	s := New(sess, m.deps)
	// Initial load failure is recoverable; the store records it in Err()
	// and the next change notice retries.
	_ = s.Load(ctx)
	if err := s.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.stores[sess.UserID]; ok {
		s.Close()
		return existing, nil
	}
	m.stores[sess.UserID] = s
	return s, nil
}

// Close tears down every session store.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.stores {
		s.Close()
		delete(m.stores, id)
	}
}
