package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcpkit/internal/cache"
)

func TestNewSweeper_InvalidSchedule(t *testing.T) {
	_, err := NewSweeper(cache.New(cache.NewMemoryStore()), "every minute")
	assert.ErrorContains(t, err, "invalid sweep schedule")
}

func TestSweeper_RemovesExpiredEntries(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	old := time.Now().Add(-time.Hour)
	require.NoError(t, store.Set(ctx, "expired", cache.Entry{Value: []byte("x"), StoredAt: old, MaxAge: time.Minute}))
	require.NoError(t, store.Set(ctx, "live", cache.Entry{Value: []byte("y"), StoredAt: time.Now(), MaxAge: time.Hour}))

	s, err := NewSweeper(cache.New(store), "@every 1h")
	require.NoError(t, err)
	s.sweep()

	assert.Equal(t, 1, store.Len())
	_, found, err := store.Get(ctx, "live")
	require.NoError(t, err)
	assert.True(t, found)
}

func TestSweeper_StartStop(t *testing.T) {
	s, err := NewSweeper(cache.New(cache.NewMemoryStore()), "*/5 * * * *")
	require.NoError(t, err)
	s.Start()
	s.Stop()
}
