package store

import (
	"context"
	"sort"
	"sync"

	"github.com/weftworks/loom/pkg/chat"
)

// MemoryStore implements Store in process memory. Sessions are immutable, so
// the store holds them directly without copying.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*chat.Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*chat.Session)}
}

// Save stores the session under the given ID, replacing any previous value.
func (m *MemoryStore) Save(_ context.Context, id string, sess *chat.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = sess
	return nil
}

// Load returns the stored session or ErrNotFound.
func (m *MemoryStore) Load(_ context.Context, id string) (*chat.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

// Delete removes the session. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// List returns the stored session IDs in sorted order.
func (m *MemoryStore) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
