package config

const (
	DefaultRoute           = "/mcp"
	DefaultBrowserRedirect = "/"
	DefaultName            = "MCP Server"
	DefaultVersion         = "1.0.0"
	DefaultDir             = "mcp"
	DefaultPort            = 8090
	DefaultMetricsPath     = "/metrics"
	DefaultSweepSchedule   = "@every 1m"
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		MCP: MCPConfig{
			Enabled:         true,
			Route:           DefaultRoute,
			BrowserRedirect: DefaultBrowserRedirect,
			Name:            DefaultName,
			Version:         DefaultVersion,
			Dir:             DefaultDir,
			Overlays:        []string{"."},
		},
		Server: ServerConfig{
			Host:        "localhost",
			Port:        DefaultPort,
			Transport:   TransportStreamableHTTP,
			MetricsPath: DefaultMetricsPath,
		},
		Cache: CacheConfig{
			Backend:       CacheBackendMemory,
			SweepSchedule: DefaultSweepSchedule,
		},
	}
}
