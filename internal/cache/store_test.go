package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the Store contract against s.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	stored := time.Now().Truncate(time.Millisecond)
	entry := Entry{Value: []byte(`{"text":"hi"}`), StoredAt: stored, MaxAge: time.Hour, StaleWhileRevalidate: time.Minute}
	require.NoError(t, s.Set(ctx, "mcp-tool:echo:hi", entry))

	got, ok, err := s.Get(ctx, "mcp-tool:echo:hi")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entry.Value, got.Value)
	assert.True(t, entry.StoredAt.Equal(got.StoredAt))
	assert.Equal(t, entry.MaxAge, got.MaxAge)
	assert.Equal(t, entry.StaleWhileRevalidate, got.StaleWhileRevalidate)

	entry.Value = []byte(`{"text":"replaced"}`)
	require.NoError(t, s.Set(ctx, "mcp-tool:echo:hi", entry))
	got, _, err = s.Get(ctx, "mcp-tool:echo:hi")
	require.NoError(t, err)
	assert.Equal(t, entry.Value, got.Value)

	require.NoError(t, s.Delete(ctx, "mcp-tool:echo:hi"))
	_, ok, err = s.Get(ctx, "mcp-tool:echo:hi")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)

	ctx := context.Background()
	now := time.Now()
	require.NoError(t, s.Set(ctx, "expired", Entry{Value: []byte("1"), StoredAt: now.Add(-time.Hour), MaxAge: time.Minute}))
	require.NoError(t, s.Set(ctx, "live", Entry{Value: []byte("2"), StoredAt: now, MaxAge: time.Minute}))

	n, err := s.Sweep(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := s.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSQLiteStore_RequiresDSN(t *testing.T) {
	_, err := NewSQLiteStore(" ")
	assert.Error(t, err)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	s, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr, Prefix: "mcpkit-test:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	exerciseStore(t, s)
}
