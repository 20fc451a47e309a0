package cache

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is a mutex-guarded TTL map used when no Redis is configured.
// Expired entries are dropped lazily on read and pruned on write; when the
// map grows past maxItems the oldest-expiring entries go first.
type Memory struct {
	mu       sync.Mutex
	items    map[string]memoryEntry
	maxItems int
	now      func() time.Time
}

func NewMemory(maxItems int) *Memory {
	if maxItems <= 0 {
		maxItems = 512
	}
	return &Memory{
		items:    make(map[string]memoryEntry),
		maxItems: maxItems,
		now:      time.Now,
	}
}

func (m *Memory) Kind() string {
	return "memory"
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if m.now().After(entry.expiresAt) {
		delete(m.items, key)
		return nil, false
	}
	return entry.value, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.prune()
	m.items[key] = memoryEntry{value: value, expiresAt: m.now().Add(ttl)}
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]memoryEntry)
	return nil
}

// prune drops expired entries, then evicts the soonest-to-expire entries
// until the map fits. Caller holds the lock.
func (m *Memory) prune() {
	now := m.now()
	for k, e := range m.items {
		if now.After(e.expiresAt) {
			delete(m.items, k)
		}
	}
	for len(m.items) >= m.maxItems {
		var oldestKey string
		var oldestAt time.Time
		for k, e := range m.items {
			if oldestKey == "" || e.expiresAt.Before(oldestAt) {
				oldestKey = k
				oldestAt = e.expiresAt
			}
		}
		delete(m.items, oldestKey)
	}
}
