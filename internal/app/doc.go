// Package app provides application bootstrap, lifecycle management and
// manifest generation for mcpkit.
//
// # Architecture Overview
//
// The app package is the composition root. It turns mcpkit.yaml and the
// command line overrides into a running server:
//
//  1. **Configuration (`config.go`)**: loads mcpkit.yaml, applies the
//     --port, --stdio and --manifest overrides and validates the result
//  2. **Services (`services.go`)**: opens the cache store, discovers and
//     compiles the definitions and builds the dispatcher
//  3. **Bootstrap (`bootstrap.go`)**: logging setup and the Application
//     lifecycle
//  4. **Modes (`modes.go`)**: streamable HTTP and stdio execution
//  5. **Sweeper (`sweeper.go`)**: cron driven removal of expired cache
//     entries
//  6. **Generate (`generate.go`)**: manifest generation and watch mode
//
// # Discovery Sources
//
// Definitions come from one of two sources:
//
//   - **Directory scan (default)**: every overlay in mcp.overlays is
//     scanned on boot
//   - **Manifest**: when mcp.manifest is set, the manifest written by
//     `mcpkit generate` is read instead. Every listed file is digested
//     again and a stale manifest aborts boot.
//
// Any definition error aborts boot. The error is a
// *config.ConfigurationErrorCollection; ReportErrors renders its detailed
// report.
//
// # Execution Modes
//
// ## HTTP Mode (default)
//
//   - Mounts the MCP routes (unless mcp.enabled is false) and the
//     Prometheus endpoint on one listener
//   - Starts the cache sweeper for stores that need it
//   - Sends READY=1 and STOPPING=1 to systemd when run as a notify unit
//   - Shuts down gracefully on SIGINT or SIGTERM
//
// ## Stdio Mode
//
//   - Serves the default route over standard input and output
//   - Logs go to standard error
//   - Handler middleware does not apply
//
// # Usage
//
//	cfg := app.NewConfig(debug, configPath)
//	cfg.Port = port
//	application, err := app.NewApplication(ctx, cfg)
//	if err != nil {
//	    fmt.Fprintln(os.Stderr, app.ReportErrors(err))
//	    return err
//	}
//	return application.Run(ctx)
package app
