package app

import (
	"github.com/giantswarm/mcpkit/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// ConfigPath is the mcpkit.yaml file or the directory holding it.
	ConfigPath string

	// Overrides applied on top of the loaded file. Zero values keep the
	// file's setting.
	Port     int
	Stdio    bool
	Manifest string

	// NoManifest forces a directory scan even when a manifest is
	// configured.
	NoManifest bool

	// Loaded configuration, set by LoadConfig.
	MCPKitConfig *config.Config
}

// NewConfig creates a new application configuration
func NewConfig(debug bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		ConfigPath: configPath,
	}
}

// LoadConfig loads the file, applies the overrides and validates the
// result.
func (c *Config) LoadConfig() (config.Config, error) {
	cfg, err := config.LoadConfig(c.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if c.Stdio {
		cfg.Server.Transport = config.TransportStdio
	}
	if c.Manifest != "" {
		cfg.MCP.Manifest = c.Manifest
	}
	if c.NoManifest {
		cfg.MCP.Manifest = ""
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	c.MCPKitConfig = &cfg
	return cfg, nil
}
