package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcpkit/internal/app"
	"github.com/giantswarm/mcpkit/internal/dispatch"
	"github.com/giantswarm/mcpkit/internal/registry"
)

var checkQuiet bool

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and every definition",
	Long: `Loads mcpkit.yaml, compiles every definition and builds every route
without starting a server. All definition errors are reported together.

The exit code is 0 when everything is valid and 2 when the configuration
or a definition is invalid.

Examples:
  mcpkit check
  mcpkit check --config deploy/mcpkit.yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVarP(&checkQuiet, "quiet", "q", false, "Only report errors, summarized")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	middleware := dispatch.DefaultMiddleware()
	r, err := app.LoadRegistry(cfg, registry.Bindings{Middleware: middleware})
	if err != nil {
		if checkQuiet {
			fmt.Fprintln(cmd.ErrOrStderr(), app.SummarizeErrors(err))
		} else {
			printReport(cmd, err)
		}
		return err
	}

	// Building the dispatcher catches route conflicts.
	if _, err := dispatch.New(r, dispatch.Options{Config: app.DispatchConfig(cfg), Middleware: middleware}); err != nil {
		return err
	}

	if checkQuiet {
		return nil
	}

	var parts []string
	for _, s := range r.Stats() {
		parts = append(parts, fmt.Sprintf("%d %s", s.Compiled, s.Kind.Plural()))
	}
	if r.DefaultHandler() != nil {
		parts = append(parts, "default handler")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %s\n", strings.Join(parts, ", "))
	return nil
}
