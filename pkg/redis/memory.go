package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewMemory returns a Client backed by a process-local map. It serves single
// instance dev servers and tests; state is lost on restart.
func NewMemory() *Client {
	return &Client{store: newMemoryStore(time.Now)}
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type memoryStore struct {
	mu   sync.Mutex
	now  func() time.Time
	data map[string]memoryEntry
}

func newMemoryStore(now func() time.Time) *memoryStore {
	return &memoryStore{now: now, data: make(map[string]memoryEntry)}
}

// lookup must be called with mu held.
func (m *memoryStore) lookup(key string) (memoryEntry, bool) {
	entry, ok := m.data[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt) {
		delete(m.data, key)
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *memoryStore) expiry(ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return m.now().Add(ttl)
}

func (m *memoryStore) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *memoryStore) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = memoryEntry{value: fmt.Sprint(value), expiresAt: m.expiry(ttl)}
	return redis.NewStatusResult("OK", nil)
}

func (m *memoryStore) Get(_ context.Context, key string) *redis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(entry.value, nil)
}

func (m *memoryStore) Incr(_ context.Context, key string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, _ := m.lookup(key)
	var n int64
	if entry.value != "" {
		if _, err := fmt.Sscan(entry.value, &n); err != nil {
			return redis.NewIntResult(0, fmt.Errorf("value is not an integer"))
		}
	}
	n++
	entry.value = fmt.Sprint(n)
	m.data[key] = entry
	return redis.NewIntResult(n, nil)
}

func (m *memoryStore) ExpireNX(_ context.Context, key string, ttl time.Duration) *redis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.lookup(key)
	if !ok || !entry.expiresAt.IsZero() {
		return redis.NewBoolResult(false, nil)
	}
	entry.expiresAt = m.expiry(ttl)
	m.data[key] = entry
	return redis.NewBoolResult(true, nil)
}

func (m *memoryStore) Del(_ context.Context, keys ...string) *redis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := m.lookup(key); ok {
			removed++
		}
		delete(m.data, key)
	}
	return redis.NewIntResult(removed, nil)
}
