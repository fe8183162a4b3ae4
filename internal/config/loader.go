package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcpkit/pkg/logging"
)

// FileName is the configuration file looked up in a configuration
// directory.
const FileName = "mcpkit.yaml"

// LoadConfig loads the configuration at path, which is either a
// configuration file or a directory holding mcpkit.yaml. A missing file
// yields the defaults. Relative overlay, manifest and sqlite paths are
// resolved against the configuration directory.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		path = "."
	}

	configFilePath := path
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		configFilePath = filepath.Join(path, FileName)
	}
	baseDir := filepath.Dir(configFilePath)

	config := GetDefaultConfig()
	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("Config", "No %s found at %s, using defaults", FileName, configFilePath)
			return resolvePaths(config, baseDir)
		}
		return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
	}

	// Overlays given in the file replace the default list.
	config.MCP.Overlays = nil
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
	}
	if len(config.MCP.Overlays) == 0 {
		config.MCP.Overlays = []string{"."}
	}

	logging.Info("Config", "Loaded configuration from %s", configFilePath)
	return resolvePaths(config, baseDir)
}

func resolvePaths(config Config, baseDir string) (Config, error) {
	abs := func(p string) (string, error) {
		if p == "" || filepath.IsAbs(p) {
			return p, nil
		}
		return filepath.Abs(filepath.Join(baseDir, p))
	}

	overlays := make([]string, 0, len(config.MCP.Overlays))
	for _, o := range config.MCP.Overlays {
		resolved, err := abs(o)
		if err != nil {
			return Config{}, fmt.Errorf("failed to resolve overlay %s: %w", o, err)
		}
		overlays = append(overlays, resolved)
	}
	config.MCP.Overlays = overlays

	var err error
	if config.MCP.Manifest, err = abs(config.MCP.Manifest); err != nil {
		return Config{}, fmt.Errorf("failed to resolve manifest path: %w", err)
	}
	if dsn := config.Cache.SQLite.DSN; dsn != "" && !strings.HasPrefix(dsn, ":") && !strings.HasPrefix(dsn, "file:") {
		if config.Cache.SQLite.DSN, err = abs(config.Cache.SQLite.DSN); err != nil {
			return Config{}, fmt.Errorf("failed to resolve sqlite dsn: %w", err)
		}
	}
	return config, nil
}
