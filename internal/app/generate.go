package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/giantswarm/mcpkit/internal/config"
	"github.com/giantswarm/mcpkit/internal/dispatch"
	"github.com/giantswarm/mcpkit/internal/registry"
	"github.com/giantswarm/mcpkit/internal/watch"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// DefaultManifestName is written next to the configuration when no
// manifest path is configured.
const DefaultManifestName = "mcpkit.manifest.yaml"

// ManifestPath returns the configured manifest path or the default one
// inside configDir.
func ManifestPath(cfg config.Config, configDir string) string {
	if cfg.MCP.Manifest != "" {
		return cfg.MCP.Manifest
	}
	return filepath.Join(configDir, DefaultManifestName)
}

// Generate scans the overlays, checks that every definition compiles and
// writes the manifest to path. Nothing is written when compilation fails.
func Generate(cfg config.Config, path string) (*registry.Manifest, error) {
	d, err := Discover(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to discover definitions: %w", err)
	}
	if _, err := registry.Compile(d, registry.Bindings{Middleware: dispatch.DefaultMiddleware()}); err != nil {
		return nil, err
	}
	return registry.WriteManifest(path, d)
}

// WatchAndGenerate regenerates the manifest whenever a definition file
// changes, until ctx is cancelled. Compile failures are reported and the
// previous manifest is kept.
func WatchAndGenerate(ctx context.Context, cfg config.Config, path string, debounce time.Duration, report func(*registry.Manifest, error)) error {
	overlays, err := Overlays(cfg)
	if err != nil {
		return err
	}
	roots := make([]string, 0, len(overlays))
	for _, o := range overlays {
		roots = append(roots, filepath.Join(o.Root, cfg.MCP.Dir))
	}

	w := watch.New(roots, debounce)
	changes := make(chan watch.Change, 1)
	if err := w.Start(ctx, changes); err != nil {
		return fmt.Errorf("failed to watch definitions: %w", err)
	}
	defer func() { _ = w.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return nil
		case change := <-changes:
			logging.Info("Generate", "%d definition files changed, regenerating", len(change.Paths))
			m, err := Generate(cfg, path)
			report(m, err)
		}
	}
}

// ReportErrors returns the detailed report of a definition error
// collection, or the error text for any other error.
func ReportErrors(err error) string {
	var collection *config.ConfigurationErrorCollection
	if errors.As(err, &collection) {
		return collection.GetDetailedReport()
	}
	return err.Error()
}

// SummarizeErrors is the short form of ReportErrors, grouped by kind and
// overlay.
func SummarizeErrors(err error) string {
	var collection *config.ConfigurationErrorCollection
	if errors.As(err, &collection) {
		return collection.GetSummary()
	}
	return err.Error()
}
