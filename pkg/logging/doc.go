// Package logging provides a structured logging system for mcpkit with unified
// log handling and flexible output formatting.
//
// This package implements a logging system built on Go's standard slog package,
// providing consistent logging behavior with structured output and level filtering.
//
// # Log Levels
//   - **Debug**: Detailed information for debugging and development
//   - **Info**: General informational messages about application operation
//   - **Warn**: Warning messages that indicate potential issues
//   - **Error**: Error messages for failures and exceptional conditions
//
// # Usage
//
//	import "github.com/giantswarm/mcpkit/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stdout)
//
//	logging.Info("Bootstrap", "Application starting up")
//	logging.Debug("Registry", "Resolved %d tools (%d overridden)", count, overridden)
//	logging.Warn("Registry", "Ignoring anonymous handler file %s", path)
//	logging.Error("Dispatch", err, "Capability invocation failed")
//
// # Subsystems
//
// Logs are organized by subsystem to enable filtering and categorization:
//
//   - **Bootstrap**: Application initialization and startup
//   - **Config**: Configuration loading and validation
//   - **Registry**: Discovery, override resolution and compilation
//   - **Dispatch**: Request routing and middleware
//   - **Cache**: Response cache hits, misses and revalidation
//   - **Watch**: Overlay watching and manifest regeneration
//
// # Thread Safety
//
// All functions are safe for concurrent use. Init may be called again at any
// time (for example when the --debug flag is parsed) and later log calls pick
// up the new handler.
package logging
