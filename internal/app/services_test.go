package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcpkit/internal/cache"
	"github.com/giantswarm/mcpkit/internal/config"
	"github.com/giantswarm/mcpkit/internal/registry"
)

var definitions = map[string]string{
	"mcp/tools/echo.yaml":       "action: echo\ncache: 1m\n",
	"mcp/resources/readme.yaml": "uri: docs://readme\ntext: read me\n",
	"mcp/prompts/greet.yaml":    "messages:\n  - text: hi\n",
	"mcp/admin.yaml":            "name: admin\nmiddleware: request-id\ntools: [echo]\n",
}

func loadTestConfig(t *testing.T, dir string) config.Config {
	t.Helper()
	cfg, err := NewConfig(false, dir).LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestNewCacheStore(t *testing.T) {
	ctx := context.Background()

	store, err := NewCacheStore(ctx, config.CacheConfig{Backend: config.CacheBackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &cache.MemoryStore{}, store)

	store, err = NewCacheStore(ctx, config.CacheConfig{Backend: config.CacheBackendNone})
	require.NoError(t, err)
	assert.Nil(t, store)

	store, err = NewCacheStore(ctx, config.CacheConfig{
		Backend: config.CacheBackendSQLite,
		SQLite:  config.SQLiteConfig{DSN: filepath.Join(t.TempDir(), "cache.db")},
	})
	require.NoError(t, err)
	assert.IsType(t, &cache.SQLiteStore{}, store)
	assert.NoError(t, store.Close())

	_, err = NewCacheStore(ctx, config.CacheConfig{Backend: "memcached"})
	assert.ErrorContains(t, err, "unknown cache backend")
}

func TestInitializeServices(t *testing.T) {
	dir := testProject(t, "", definitions)
	cfg := loadTestConfig(t, dir)

	s, err := InitializeServices(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)

	require.NotNil(t, s.Cache)
	assert.Len(t, s.Registry.Tools(), 1)
	assert.Len(t, s.Registry.Resources(), 1)
	assert.Len(t, s.Registry.Prompts(), 1)

	rt, err := s.Dispatcher.Resolve("admin")
	require.NoError(t, err)
	assert.Equal(t, "request-id", rt.Middleware)
}

func TestInitializeServices_DefinitionErrors(t *testing.T) {
	dir := testProject(t, "cache:\n  backend: none\n", map[string]string{
		"mcp/tools/broken.yaml": "action: missing\n",
		"mcp/bad.yaml":          "name: bad\nmiddleware: nope\n",
	})
	cfg := loadTestConfig(t, dir)

	_, err := InitializeServices(context.Background(), cfg)
	require.Error(t, err)

	var collection *config.ConfigurationErrorCollection
	require.True(t, errors.As(err, &collection))
	assert.Equal(t, 2, collection.Count())
	assert.Contains(t, ReportErrors(err), "Detailed Configuration Error Report (2 errors)")
	assert.Contains(t, SummarizeErrors(err), "Configuration Error Summary (2 total errors)")
	assert.Equal(t, "boom", SummarizeErrors(errors.New("boom")))
}

func TestLoadDiscovery_FromManifest(t *testing.T) {
	dir := testProject(t, "mcp:\n  manifest: manifest.yaml\n", definitions)
	cfg := loadTestConfig(t, dir)

	_, err := LoadDiscovery(cfg)
	require.Error(t, err, "a configured manifest must exist")

	_, err = Generate(cfg, cfg.MCP.Manifest)
	require.NoError(t, err)

	d, err := LoadDiscovery(cfg)
	require.NoError(t, err)
	assert.Len(t, d.Tools.Files, 1)
	assert.Len(t, d.Handlers.Files, 1)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "mcp/tools/echo.yaml"), []byte("action: reverse\n"), 0644))
	_, err = LoadDiscovery(cfg)
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrStaleManifest))
	assert.Contains(t, err.Error(), "mcpkit generate")
}
