// Package ttlcache memoizes the results of expensive computations for a
// bounded lifetime. The POSIX storage backend uses it to amortize batched
// disk-usage scans under read-heavy load.
package ttlcache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	insertedAt time.Time
	value      V
}

// Cache memoizes values per key for a fixed TTL.
//
// Concurrent callers hitting the same key during a miss window may each
// invoke the compute function; in-flight computations are not de-duplicated.
// This keeps the cache free of cross-caller blocking at the cost of
// occasional duplicate work, which is acceptable for idempotent queries.
//
// Expired entries are replaced on the next write to the same key, never
// collected eagerly, so the key set grows monotonically. The backends key by
// tenant path, which is bounded by the number of tenants on the host.
type Cache[K comparable, V any] struct {
	ttl time.Duration

	mu      sync.Mutex
	entries map[K]entry[V]

	// now is replaceable for tests.
	now func() time.Time
}

// New creates a cache whose entries live for ttl after insertion.
func New[K comparable, V any](ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		entries: make(map[K]entry[V]),
		now:     time.Now,
	}
}

// GetOrCompute returns the cached value for key if it is younger than the
// TTL; otherwise it invokes compute, stores the result and returns it.
// Errors from compute are returned as-is and never cached.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok && c.now().Sub(e.insertedAt) < c.ttl {
		c.mu.Unlock()
		return e.value, nil
	}
	c.mu.Unlock()

	// Computed outside the lock so a slow scan for one key does not block
	// lookups for other keys.
	value, err := compute()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{insertedAt: c.now(), value: value}
	c.mu.Unlock()
	return value, nil
}
