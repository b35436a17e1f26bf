package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0, zap.NewNop())
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), "k", []byte("value")))

	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), got)
}

func TestMemoryCacheMiss(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0, zap.NewNop())
	defer c.Stop()

	_, ok := c.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestMemoryCacheLazyExpiry(t *testing.T) {
	c := NewMemoryCache(10*time.Millisecond, 0, zap.NewNop())
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), "k", []byte("value")))
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestMemoryCacheOverwriteResetsEntry(t *testing.T) {
	c := NewMemoryCache(30*time.Millisecond, 0, zap.NewNop())
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), "k", []byte("old")))
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, c.Set(context.Background(), "k", []byte("new")))
	time.Sleep(20 * time.Millisecond)

	// 40ms after the first write but only 20ms after the overwrite
	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestMemoryCacheCleanupRemovesExpired(t *testing.T) {
	c := NewMemoryCache(10*time.Millisecond, 0, zap.NewNop())
	defer c.Stop()

	require.NoError(t, c.Set(context.Background(), "old", []byte("x")))
	time.Sleep(25 * time.Millisecond)
	require.NoError(t, c.Set(context.Background(), "fresh", []byte("y")))

	require.NoError(t, c.Cleanup(context.Background()))

	c.mu.Lock()
	defer c.mu.Unlock()
	assert.NotContains(t, c.entries, "old")
	assert.Contains(t, c.entries, "fresh")
}

func TestMemoryCacheStopIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute, zap.NewNop())
	c.Stop()
	c.Stop()
}
