package config

// Config is the top-level configuration structure for mcpkit.
type Config struct {
	MCP    MCPConfig    `yaml:"mcp"`
	Server ServerConfig `yaml:"server"`
	Cache  CacheConfig  `yaml:"cache"`
}

const (
	// TransportStreamableHTTP serves every route over streamable HTTP.
	TransportStreamableHTTP = "streamable-http"
	// TransportStdio serves the default route over standard I/O.
	TransportStdio = "stdio"
)

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendSQLite = "sqlite"
	CacheBackendNone   = "none"
)

// MCPConfig defines what is discovered and how it is exposed.
type MCPConfig struct {
	Enabled         bool   `yaml:"enabled"`                   // Whether the MCP endpoint is mounted (default: true)
	Route           string `yaml:"route,omitempty"`           // Base route of the endpoint (default: /mcp)
	BrowserRedirect string `yaml:"browserRedirect,omitempty"` // Target for requests accepting text/html (default: /)
	Name            string `yaml:"name,omitempty"`            // Server display name (default: MCP Server)
	Version         string `yaml:"version,omitempty"`         // Server version (default: 1.0.0)
	Dir             string `yaml:"dir,omitempty"`             // Definition directory inside each overlay (default: mcp)
	// Overlays lists overlay roots from lowest to highest precedence.
	// Relative paths are resolved against the configuration directory.
	Overlays []string `yaml:"overlays,omitempty"`
	// Exclude holds scan exclude patterns relative to the definition
	// directory.
	Exclude []string `yaml:"exclude,omitempty"`
	// Manifest is the path of a generated manifest. When set, serve and
	// check use it instead of scanning the overlays.
	Manifest string `yaml:"manifest,omitempty"`
}

// ServerConfig defines the listener of the serve command.
type ServerConfig struct {
	Host        string `yaml:"host,omitempty"`        // Host to bind to (default: localhost)
	Port        int    `yaml:"port,omitempty"`        // Port to listen on (default: 8090)
	Transport   string `yaml:"transport,omitempty"`   // streamable-http or stdio (default: streamable-http)
	MetricsPath string `yaml:"metricsPath,omitempty"` // Prometheus endpoint, empty disables it (default: /metrics)
}

// CacheConfig selects the response cache store.
type CacheConfig struct {
	Backend       string       `yaml:"backend,omitempty"`       // memory, redis, sqlite or none (default: memory)
	SweepSchedule string       `yaml:"sweepSchedule,omitempty"` // cron schedule for removing expired entries (default: @every 1m)
	Redis         RedisConfig  `yaml:"redis,omitempty"`
	SQLite        SQLiteConfig `yaml:"sqlite,omitempty"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

// SQLiteConfig holds the SQLite database location.
type SQLiteConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}
