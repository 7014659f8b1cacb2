package cache

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// memoryEntry holds a value and its absolute expiry. A zero expiry means the
// entry never expires.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func (e *memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && e.expiresAt.Before(now)
}

// Memory is an in-process Cache implementation backed by a mutex-guarded map
// with a janitor goroutine that evicts expired entries. Suitable for
// single-process deployments and tests; a shared deployment swaps in a
// networked implementation behind the same interface.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
	done    chan struct{}
	closed  sync.Once
}

// NewMemory creates an in-memory cache. cleanupInterval controls how often
// expired entries are evicted; expired entries are also ignored on read, so
// the interval only bounds memory growth, not correctness.
func NewMemory(cleanupInterval time.Duration) *Memory {
	m := &Memory{
		entries: make(map[string]*memoryEntry),
		done:    make(chan struct{}),
	}

	go m.janitor(cleanupInterval)

	return m
}

// Get returns the value for key if present and not expired.
func (m *Memory) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok || entry.expired(time.Now()) {
		return nil, false, nil
	}

	// Copy so callers cannot mutate the stored value.
	value := make([]byte, len(entry.value))
	copy(value, entry.value)

	return value, true, nil
}

// Set stores value under key, resetting any previous TTL.
func (m *Memory) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	stored := make([]byte, len(value))
	copy(stored, value)

	entry := &memoryEntry{value: stored}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()

	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	return nil
}

// Increment atomically increments the counter under key. The TTL is applied
// only on counter creation so the window stays anchored at its first event.
func (m *Memory) Increment(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()

	entry, ok := m.entries[key]
	if !ok || entry.expired(now) {
		entry = &memoryEntry{value: []byte("0")}
		if ttl > 0 {
			entry.expiresAt = now.Add(ttl)
		}
		m.entries[key] = entry
	}

	count, err := strconv.ParseInt(string(entry.value), 10, 64)
	if err != nil {
		// Key held a non-counter value; restart the counter rather than fail
		// the request path.
		count = 0
	}

	count++
	entry.value = []byte(strconv.FormatInt(count, 10))

	return count, nil
}

// Close stops the janitor goroutine. Subsequent calls are no-ops.
func (m *Memory) Close() error {
	m.closed.Do(func() {
		close(m.done)
	})
	return nil
}

// janitor periodically evicts expired entries until Close is called.
func (m *Memory) janitor(interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			now := time.Now()
			m.mu.Lock()
			for key, entry := range m.entries {
				if entry.expired(now) {
					delete(m.entries, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
