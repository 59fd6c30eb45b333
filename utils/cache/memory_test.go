package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryCache(t *testing.T) *MemoryCache {
	t.Helper()
	m := NewMemoryCache()
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestMemoryCacheExpiry(t *testing.T) {
	m := newMemoryCache(t)
	ctx := context.Background()

	require.NoError(t, m.Set(ctx, "k", "v", 20*time.Millisecond))
	v, err := m.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	time.Sleep(40 * time.Millisecond)
	_, err = m.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCacheEvictsExpiredEntries(t *testing.T) {
	m := newMemoryCache(t)
	ctx := context.Background()

	for i := 0; i < 1000; i++ {
		require.NoError(t, m.SetJSON(ctx, fmt.Sprintf("job:%d", i), map[string]int{"n": i}, time.Millisecond))
	}
	require.NoError(t, m.Set(ctx, "keep", "v", time.Hour))

	// Nothing reads the expired keys again; the eviction loop has to drop them
	assert.Eventually(t, func() bool { return m.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	v, err := m.Get(ctx, "keep")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestMemoryCacheLock(t *testing.T) {
	m := newMemoryCache(t)
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "lock", "job-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.SetNX(ctx, "lock", "job-2", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	deleted, err := m.DeleteIfEquals(ctx, "lock", "job-2")
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = m.DeleteIfEquals(ctx, "lock", "job-1")
	require.NoError(t, err)
	assert.True(t, deleted)

	exists, err := m.Exists(ctx, "lock")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestMemoryCacheLockExpires(t *testing.T) {
	m := newMemoryCache(t)
	ctx := context.Background()

	ok, err := m.SetNX(ctx, "lock", "job-1", 20*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	// Reads do not extend the lock
	for i := 0; i < 3; i++ {
		_, _ = m.Get(ctx, "lock")
		time.Sleep(10 * time.Millisecond)
	}

	ok, err = m.SetNX(ctx, "lock", "job-2", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryCacheJSON(t *testing.T) {
	m := newMemoryCache(t)
	ctx := context.Background()

	type payload struct {
		Fraction float64 `json:"fraction"`
	}
	require.NoError(t, m.SetJSON(ctx, "p", payload{Fraction: 0.5}, 0))

	var got payload
	require.NoError(t, m.GetJSON(ctx, "p", &got))
	assert.Equal(t, 0.5, got.Fraction)

	require.NoError(t, m.Delete(ctx, "p"))
	assert.ErrorIs(t, m.GetJSON(ctx, "p", &got), ErrNotFound)
}

func TestMemoryCacheIncrement(t *testing.T) {
	m := newMemoryCache(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		n, err := m.Increment(ctx, "hits", 50*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, want, n)
	}

	ttl, err := m.TTL(ctx, "hits")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, 50*time.Millisecond)

	// The window starts at the first increment and is not extended
	time.Sleep(70 * time.Millisecond)
	n, err := m.Increment(ctx, "hits", 50*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, m.Set(ctx, "word", "abc", 0))
	_, err = m.Increment(ctx, "word", 0)
	assert.Error(t, err)

	ttl, err = m.TTL(ctx, "word")
	require.NoError(t, err)
	assert.Equal(t, -1*time.Second, ttl)

	ttl, err = m.TTL(ctx, "missing")
	require.NoError(t, err)
	assert.Equal(t, -2*time.Second, ttl)
}

func TestMemoryCacheCloseTwice(t *testing.T) {
	m := NewMemoryCache()
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}
