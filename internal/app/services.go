package app

import (
	"context"
	"fmt"

	"github.com/giantswarm/mcpkit/internal/cache"
	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/config"
	"github.com/giantswarm/mcpkit/internal/dispatch"
	"github.com/giantswarm/mcpkit/internal/overlay"
	"github.com/giantswarm/mcpkit/internal/registry"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// Services holds everything built during bootstrap.
//
// Initialization order:
//  1. Cache store for the configured backend
//  2. Discovery, from the manifest or a directory scan
//  3. Registry compilation against the actions, middleware and cache
//  4. Dispatcher with one MCP server per route
type Services struct {
	Config     config.Config
	Actions    *capability.ActionSet
	Middleware *dispatch.MiddlewareSet

	// Cache is nil when the backend is "none".
	Cache *cache.Cache

	Registry   *registry.Registry
	Dispatcher *dispatch.Dispatcher
}

// InitializeServices builds the registry and dispatcher for cfg. Any
// definition error aborts bootstrap and is returned as a
// *config.ConfigurationErrorCollection.
func InitializeServices(ctx context.Context, cfg config.Config) (*Services, error) {
	s := &Services{
		Config:     cfg,
		Actions:    capability.DefaultActions(),
		Middleware: dispatch.DefaultMiddleware(),
	}

	store, err := NewCacheStore(ctx, cfg.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache store: %w", err)
	}
	if store != nil {
		s.Cache = cache.New(store)
		logging.Info("Services", "Response cache backend: %s", cfg.Cache.Backend)
	}

	s.Registry, err = LoadRegistry(cfg, registry.Bindings{
		Actions:    s.Actions,
		Middleware: s.Middleware,
		Cache:      s.Cache,
	})
	if err != nil {
		s.Close()
		return nil, err
	}

	s.Dispatcher, err = dispatch.New(s.Registry, dispatch.Options{
		Config:     DispatchConfig(cfg),
		Middleware: s.Middleware,
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}
	return s, nil
}

// Close releases the cache store.
func (s *Services) Close() {
	if s.Cache == nil {
		return
	}
	s.Cache.Wait()
	if err := s.Cache.Store().Close(); err != nil {
		logging.Warn("Services", "Failed to close cache store: %v", err)
	}
}

// DispatchConfig maps the mcp section onto the dispatcher settings.
func DispatchConfig(cfg config.Config) dispatch.Config {
	return dispatch.Config{
		Name:            cfg.MCP.Name,
		Version:         cfg.MCP.Version,
		BrowserRedirect: cfg.MCP.BrowserRedirect,
		Route:           cfg.MCP.Route,
	}
}

// NewCacheStore opens the store selected by the cache section. It returns
// nil for the "none" backend.
func NewCacheStore(ctx context.Context, cfg config.CacheConfig) (cache.Store, error) {
	switch cfg.Backend {
	case config.CacheBackendNone:
		return nil, nil
	case config.CacheBackendRedis:
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheBackendSQLite:
		store, err := cache.NewSQLiteStore(cfg.SQLite.DSN)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.CacheBackendMemory, "":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// Overlays turns the configured overlay roots into overlays.
func Overlays(cfg config.Config) ([]overlay.Overlay, error) {
	overlays := make([]overlay.Overlay, 0, len(cfg.MCP.Overlays))
	for _, root := range cfg.MCP.Overlays {
		o, err := overlay.New(root)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, o)
	}
	return overlays, nil
}

// Discover scans the configured overlays.
func Discover(cfg config.Config) (*registry.Discovery, error) {
	overlays, err := Overlays(cfg)
	if err != nil {
		return nil, err
	}
	return registry.Discover(registry.Options{
		Overlays: overlays,
		Dir:      cfg.MCP.Dir,
		Exclude:  cfg.MCP.Exclude,
	})
}

// LoadDiscovery reads the configured manifest, or scans the overlays when
// none is configured.
func LoadDiscovery(cfg config.Config) (*registry.Discovery, error) {
	if cfg.MCP.Manifest == "" {
		return Discover(cfg)
	}

	m, err := registry.ReadManifest(cfg.MCP.Manifest)
	if err != nil {
		return nil, err
	}
	d, err := registry.DiscoveryFromManifest(m)
	if err != nil {
		return nil, fmt.Errorf("%w (run 'mcpkit generate' to refresh %s)", err, cfg.MCP.Manifest)
	}
	logging.Info("Services", "Loaded %d definition files from manifest %s", len(m.Digests), cfg.MCP.Manifest)
	return d, nil
}

// LoadRegistry discovers and compiles the definitions of cfg.
func LoadRegistry(cfg config.Config, b registry.Bindings) (*registry.Registry, error) {
	d, err := LoadDiscovery(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to discover definitions: %w", err)
	}
	return registry.Compile(d, b)
}
