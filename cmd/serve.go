package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcpkit/internal/app"
)

var (
	// servePort overrides server.port when non-zero.
	servePort int
	// serveStdio serves the default route over standard I/O instead of HTTP.
	serveStdio bool
	// serveManifest overrides mcp.manifest.
	serveManifest string
	// serveNoManifest scans the overlays even when a manifest is configured.
	serveNoManifest bool
)

// serveCmd defines the serve command structure.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server",
	Long: `Discovers and compiles every definition, then serves them.

Two transports are available:

1. Streamable HTTP (default):
   - Serves the default route on mcp.route (default /mcp)
   - Serves every named handler on <route>/<name> and on its custom route
   - Exposes Prometheus metrics on server.metricsPath (default /metrics)

2. Stdio (--stdio):
   - Serves the default route over standard input and output
   - Handler middleware does not apply

Any definition error aborts startup with a detailed report.

Configuration:
  mcpkit reads mcpkit.yaml from the current directory. Use --config to
  point to another file or directory.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

// runServe is the main entry point for the serve command
func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(debug, configPath)
	cfg.Port = servePort
	cfg.Stdio = serveStdio
	cfg.Manifest = serveManifest
	cfg.NoManifest = serveNoManifest

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	application, err := app.NewApplication(ctx, cfg)
	if err != nil {
		printReport(cmd, err)
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return application.Run(ctx)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveStdio, "stdio", false, "Serve the default route over stdio")
	serveCmd.Flags().StringVar(&serveManifest, "manifest", "", "Read definitions from this manifest instead of scanning")
	serveCmd.Flags().BoolVar(&serveNoManifest, "no-manifest", false, "Scan the overlays even when a manifest is configured")
	serveCmd.MarkFlagsMutuallyExclusive("manifest", "no-manifest")
}
