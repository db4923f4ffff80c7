package store

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store used in tests and for ephemeral
// deployments where persistence across restarts is not wanted.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]map[string][]byte // sessionID -> key -> value
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string][]byte),
	}
}

func (m *MemoryStore) Get(_ context.Context, sessionID, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys, ok := m.data[sessionID]
	if !ok {
		return nil, false, nil
	}
	value, ok := keys[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (m *MemoryStore) Set(_ context.Context, sessionID, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys, ok := m.data[sessionID]
	if !ok {
		keys = make(map[string][]byte)
		m.data[sessionID] = keys
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	keys[key] = cp
	return nil
}

func (m *MemoryStore) Remove(_ context.Context, sessionID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keys, ok := m.data[sessionID]; ok {
		delete(keys, key)
		if len(keys) == 0 {
			delete(m.data, sessionID)
		}
	}
	return nil
}

func (m *MemoryStore) RemoveSession(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, sessionID)
	return nil
}

func (m *MemoryStore) Ping(_ context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }
