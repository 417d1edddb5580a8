// Package cache provides a TTL cache with an injected clock and explicit
// invalidation, so callers can test expiry deterministically and reset state
// between tests instead of sharing a process-global singleton.
package cache

import (
	"sync"
	"time"
)

// Clock supplies the current time. Tests inject a fake; production uses
// SystemClock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall-clock Clock.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time { return time.Now() }

type item[V any] struct {
	value     V
	expiresAt time.Time
}

// TTL is a generic time-bounded cache. Safe for concurrent use.
type TTL[K comparable, V any] struct {
	mu    sync.RWMutex
	ttl   time.Duration
	clock Clock
	items map[K]item[V]
}

// NewTTL creates a cache whose entries expire after ttl. A nil clock defaults
// to SystemClock.
func NewTTL[K comparable, V any](ttl time.Duration, clock Clock) *TTL[K, V] {
	if clock == nil {
		clock = SystemClock{}
	}
	return &TTL[K, V]{
		ttl:   ttl,
		clock: clock,
		items: make(map[K]item[V]),
	}
}

// Get returns the cached value for key if present and unexpired.
func (c *TTL[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	if !ok || c.clock.Now().After(it.expiresAt) {
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key with a fresh TTL.
func (c *TTL[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)}
}

// Invalidate removes one key.
func (c *TTL[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Reset clears all entries.
func (c *TTL[K, V]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]item[V])
}
