package cache

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSQLiteTestCache(t *testing.T, ttl time.Duration) *SQLiteCache {
	t.Helper()
	c, err := NewSQLiteCache(filepath.Join(t.TempDir(), "cache.db"), ttl, 0, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(c.Stop)
	return c
}

func TestSQLiteCacheRoundTrip(t *testing.T) {
	c := newSQLiteTestCache(t, time.Minute)

	require.NoError(t, c.Set(context.Background(), "k", []byte("value")))

	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("value"), got)
}

func TestSQLiteCacheMiss(t *testing.T) {
	c := newSQLiteTestCache(t, time.Minute)

	_, ok := c.Get(context.Background(), "absent")
	assert.False(t, ok)
}

func TestSQLiteCacheExpiry(t *testing.T) {
	c := newSQLiteTestCache(t, 10*time.Millisecond)

	require.NoError(t, c.Set(context.Background(), "k", []byte("value")))
	time.Sleep(25 * time.Millisecond)

	_, ok := c.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestSQLiteCacheUpsert(t *testing.T) {
	c := newSQLiteTestCache(t, time.Minute)

	require.NoError(t, c.Set(context.Background(), "k", []byte("old")))
	require.NoError(t, c.Set(context.Background(), "k", []byte("new")))

	got, ok := c.Get(context.Background(), "k")
	assert.True(t, ok)
	assert.Equal(t, []byte("new"), got)
}

func TestSQLiteCacheCleanup(t *testing.T) {
	c := newSQLiteTestCache(t, 10*time.Millisecond)

	require.NoError(t, c.Set(context.Background(), "k", []byte("value")))
	time.Sleep(25 * time.Millisecond)
	require.NoError(t, c.Cleanup(context.Background()))

	var count int
	require.NoError(t, c.db.QueryRow(`SELECT COUNT(*) FROM stage_cache`).Scan(&count))
	assert.Zero(t, count)
}
