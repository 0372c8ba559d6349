package kv

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/simplelru"
)

const (
	// DefaultMemoryCapacity bounds the local map when no capacity is configured.
	DefaultMemoryCapacity = 10000
	memorySweepInterval   = time.Second
)

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is the process-local adapter. A single mutex serializes every
// operation, which makes Mutate atomic within the process. When the LRU is
// full the least recently used entry is evicted.
type Memory struct {
	mu        sync.Mutex
	entries   *simplelru.LRU[string, memoryEntry]
	now       func() time.Time
	lastSweep time.Time
}

// NewMemory returns an empty local store holding at most capacity entries.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	entries, err := simplelru.NewLRU[string, memoryEntry](capacity, nil)
	if err != nil {
		// only possible for a non-positive size, excluded above
		panic(err)
	}
	return &Memory{entries: entries, now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, ok := m.lookupLocked(key)
	if !ok {
		return nil, ErrNotFound
	}
	return cloneBytes(value), nil
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	m.entries.Add(key, memoryEntry{value: cloneBytes(value), expiresAt: m.now().Add(normalizeTTL(ttl))})
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookupLocked(key)
	m.entries.Remove(key)
	return ok, nil
}

func (m *Memory) Mutate(_ context.Context, key string, fn MutateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	value, found := m.lookupLocked(key)
	mut, err := fn(cloneBytes(value), found)
	if err != nil {
		return err
	}

	switch mut.Op {
	case OpSet:
		m.entries.Add(key, memoryEntry{value: cloneBytes(mut.Value), expiresAt: m.now().Add(normalizeTTL(mut.TTL))})
	case OpDelete:
		m.entries.Remove(key)
	}
	return nil
}

// Len reports the number of live entries after a forced sweep.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastSweep = time.Time{}
	m.sweepLocked()
	return m.entries.Len()
}

func (m *Memory) lookupLocked(key string) ([]byte, bool) {
	m.sweepLocked()
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, false
	}
	if !m.now().Before(entry.expiresAt) {
		m.entries.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// sweepLocked drops expired entries, at most once per sweep interval.
func (m *Memory) sweepLocked() {
	now := m.now()
	if now.Sub(m.lastSweep) < memorySweepInterval {
		return
	}
	m.lastSweep = now
	for _, key := range m.entries.Keys() {
		entry, ok := m.entries.Peek(key)
		if ok && !now.Before(entry.expiresAt) {
			m.entries.Remove(key)
		}
	}
}
