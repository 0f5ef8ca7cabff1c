package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSetExpiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[string](context.Background(), 0)
	c.now = func() time.Time { return now }

	c.Set("k", "v", time.Hour)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	now = now.Add(2 * time.Hour)
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Zero(t, c.Len())
}

func TestCleanup(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := New[int](context.Background(), 0)
	c.now = func() time.Time { return now }

	c.Set("short", 1, time.Minute)
	c.Set("long", 2, time.Hour)
	now = now.Add(10 * time.Minute)
	c.cleanup()

	assert.Equal(t, 1, c.Len())
	v, ok := c.Get("long")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestCleanupLoopStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := New[int](ctx, time.Millisecond)
	c.Set("x", 1, time.Hour)
	cancel()
	v, ok := c.Get("x")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestSnapshotRestore(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	src := New[string](context.Background(), 0)
	src.now = func() time.Time { return now }
	src.Set("fresh", "a", time.Hour)
	src.Set("stale", "b", time.Minute)

	now = now.Add(5 * time.Minute)
	snap := src.Snapshot()
	assert.Len(t, snap, 1)
	assert.Equal(t, now.Add(55*time.Minute), snap["fresh"].ExpiresAt)

	dst := New[string](context.Background(), 0)
	dst.now = func() time.Time { return now }
	assert.Equal(t, 1, dst.Restore(snap))
	v, ok := dst.Get("fresh")
	assert.True(t, ok)
	assert.Equal(t, "a", v)

	now = now.Add(time.Hour)
	assert.Zero(t, New[string](context.Background(), 0).Restore(map[string]Entry[string]{
		"old": {Value: "x", ExpiresAt: now.Add(-time.Hour)},
	}))
}
