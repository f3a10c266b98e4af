package cache

import (
	"context"
	"encoding/json"
	"sync"
)

type memoryEntry struct {
	key  Key
	data []byte
}

// MemoryCache is a process-local Cache. Values are stored encoded so callers
// never share mutable state with the cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

// NewMemoryCache returns an empty MemoryCache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

var _ Cache = (*MemoryCache)(nil)

func (m *MemoryCache) Get(_ context.Context, key Key, dst any) error {
	m.mu.RLock()
	entry, ok := m.entries[key.String()]
	m.mu.RUnlock()
	if !ok {
		return ErrMiss
	}
	return json.Unmarshal(entry.data, dst)
}

func (m *MemoryCache) Set(_ context.Context, key Key, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	owned := append(Key(nil), key...)
	m.mu.Lock()
	m.entries[key.String()] = memoryEntry{key: owned, data: data}
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Invalidate(_ context.Context, prefix Key) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, entry := range m.entries {
		if entry.key.HasPrefix(prefix) {
			delete(m.entries, id)
		}
	}
	return nil
}

// Len reports the number of live entries.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
