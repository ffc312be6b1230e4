package status

import (
	"context"
	"sync"
)

// MemoryStore keeps snapshots in process memory. Entries never expire and are
// lost on restart; use RedisStore for multi-instance deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]Status
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]Status)}
}

func (m *MemoryStore) Get(_ context.Context, jobID string) (Status, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entries[jobID]
	return s, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, jobID string, s Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[jobID] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, jobID)
	return nil
}

var _ Store = (*MemoryStore)(nil)
