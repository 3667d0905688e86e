package kv

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store, used for tests and ephemeral runs.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]map[string]int64)}
}

func (m *MemoryStore) Get(_ context.Context, ns, key string) (int64, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[ns][key]
	return v, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, ns, key string, value int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.values[ns]
	if !ok {
		bucket = make(map[string]int64)
		m.values[ns] = bucket
	}
	bucket[key] = value
	return nil
}

func (m *MemoryStore) Close() error { return nil }
