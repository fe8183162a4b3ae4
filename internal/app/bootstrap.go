package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/giantswarm/mcpkit/internal/config"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// Application bootstraps and runs the MCP server.
//
// The Application follows a two-phase initialization pattern:
//  1. Bootstrap phase: load configuration, initialize logging, compile the
//     registry and build the dispatcher
//  2. Execution phase: serve over HTTP or stdio until interrupted
//
// Example usage:
//
//	cfg := app.NewConfig(false, "mcpkit.yaml")
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	return application.Run(ctx)
type Application struct {
	config   *Config
	services *Services
}

// NewApplication performs the bootstrap sequence:
//
//  1. Configures logging based on the debug flag
//  2. Loads and validates mcpkit.yaml with the command line overrides
//  3. Discovers and compiles every definition
//  4. Builds the dispatcher
//
// Definition errors are returned as a *config.ConfigurationErrorCollection
// so callers can print the full report.
func NewApplication(ctx context.Context, cfg *Config) (*Application, error) {
	// Stdout carries the protocol in stdio mode, so logs go to stderr
	// until the transport is known and stay there for stdio.
	InitLogging(cfg.Debug, os.Stderr)

	mcpkitCfg, err := cfg.LoadConfig()
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration")
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if mcpkitCfg.Server.Transport != config.TransportStdio {
		InitLogging(cfg.Debug, os.Stdout)
	}

	services, err := InitializeServices(ctx, mcpkitCfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, err
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// InitLogging configures the CLI logger.
func InitLogging(debug bool, output io.Writer) {
	level := logging.LevelInfo
	if debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, output)
}

// Services returns the services built during bootstrap.
func (a *Application) Services() *Services {
	return a.services
}

// Run serves until ctx is cancelled or SIGINT/SIGTERM is received, then
// shuts down gracefully and releases the cache store.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer a.services.Close()

	if a.services.Config.Server.Transport == config.TransportStdio {
		return runStdioMode(ctx, a.services)
	}
	return runHTTPMode(ctx, a.services)
}
