package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcpkit/internal/app"
	"github.com/giantswarm/mcpkit/internal/registry"
)

var (
	generateOutput   string
	generateWatch    bool
	generateDebounce time.Duration
)

// generateCmd writes the manifest consumed by serve.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the definition manifest",
	Long: `Scans the overlays, checks that every definition compiles and writes the
manifest. serve reads the manifest instead of scanning when mcp.manifest
is set, and refuses to start if a listed file changed since generation.

The manifest is written to mcp.manifest, or to mcpkit.manifest.yaml next
to the configuration when none is configured.

With --watch the manifest is rewritten whenever a definition changes.

Examples:
  mcpkit generate
  mcpkit generate --output build/manifest.yaml
  mcpkit generate --watch`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	path := generateOutput
	if path == "" {
		path = app.ManifestPath(cfg, configDir())
	}

	m, err := app.Generate(cfg, path)
	if err != nil {
		printReport(cmd, err)
		if !generateWatch {
			return err
		}
	} else {
		printGenerated(cmd.OutOrStdout(), path, m)
	}

	if !generateWatch {
		return nil
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes. Press Ctrl+C to stop.")
	return app.WatchAndGenerate(ctx, cfg, path, generateDebounce, func(m *registry.Manifest, err error) {
		if err != nil {
			printReport(cmd, err)
			return
		}
		printGenerated(cmd.OutOrStdout(), path, m)
	})
}

func printGenerated(w io.Writer, path string, m *registry.Manifest) {
	fmt.Fprintf(w, "Wrote %s (%d definition files)\n", path, len(m.Digests))
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVarP(&generateOutput, "output", "o", "", "Manifest path (default: mcp.manifest or "+app.DefaultManifestName+")")
	generateCmd.Flags().BoolVarP(&generateWatch, "watch", "w", false, "Regenerate whenever a definition changes")
	generateCmd.Flags().DurationVar(&generateDebounce, "debounce", 300*time.Millisecond, "Quiet period before regenerating in watch mode")
}
