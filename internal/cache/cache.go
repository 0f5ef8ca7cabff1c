// Package cache is an in-memory TTL map that can be snapshotted between runs.
package cache

import (
	"context"
	"sync"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt time.Time
}

type Cache[V any] struct {
	mu    sync.RWMutex
	items map[string]item[V]
	now   func() time.Time
}

// New starts a background sweep every interval until ctx is done.
// A zero interval disables the sweep; expired entries are still never returned.
func New[V any](ctx context.Context, interval time.Duration) *Cache[V] {
	c := &Cache[V]{
		items: make(map[string]item[V]),
		now:   time.Now,
	}
	if interval > 0 {
		go c.cleanupLoop(ctx, interval)
	}
	return c
}

func (c *Cache[V]) Set(key string, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[V]{value: value, expiresAt: c.now().Add(ttl)}
}

func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}
	if c.now().After(it.expiresAt) {
		c.mu.Lock()
		if cur, still := c.items[key]; still && cur.expiresAt.Equal(it.expiresAt) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return it.value, true
}

// Entry is the exported form of a cached value.
type Entry[V any] struct {
	Value     V         `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Snapshot copies every entry that has not expired.
func (c *Cache[V]) Snapshot() map[string]Entry[V] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	out := make(map[string]Entry[V], len(c.items))
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			continue
		}
		out[key] = Entry[V]{Value: it.value, ExpiresAt: it.expiresAt}
	}
	return out
}

// Restore loads entries produced by Snapshot and returns how many were kept.
// Expired entries are skipped; existing keys are overwritten.
func (c *Cache[V]) Restore(entries map[string]Entry[V]) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	kept := 0
	for key, e := range entries {
		if now.After(e.ExpiresAt) {
			continue
		}
		c.items[key] = item[V]{value: e.Value, expiresAt: e.ExpiresAt}
		kept++
	}
	return kept
}

func (c *Cache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *Cache[V]) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

func (c *Cache[V]) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, it := range c.items {
		if now.After(it.expiresAt) {
			delete(c.items, key)
		}
	}
}
