package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/giantswarm/mcpkit/internal/app"
	"github.com/giantswarm/mcpkit/internal/config"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeConfigError indicates invalid configuration or definition files.
	ExitCodeConfigError = 2
)

var (
	// configPath is the mcpkit.yaml file or the directory holding it.
	configPath string
	// debug enables verbose logging across the application.
	debug bool
)

// rootCmd represents the base command for the mcpkit application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcpkit",
	Short: "Serve MCP tools, resources and prompts from definition files",
	Long: `mcpkit discovers tool, resource, prompt and handler definitions in layered
overlay directories and serves them over the Model Context Protocol.

Definitions live in the mcp/ directory of every overlay. A definition in a
later overlay replaces the one with the same name in an earlier overlay.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Commands other than serve print results on stdout, so logs go
		// to stderr and only warnings show without --debug.
		level := logging.LevelWarn
		if debug {
			level = logging.LevelDebug
		}
		logging.InitForCLI(level, cmd.ErrOrStderr())
	},
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcpkit version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	var collection *config.ConfigurationErrorCollection
	if errors.As(err, &collection) {
		return ExitCodeConfigError
	}

	var validation config.ValidationErrors
	if errors.As(err, &validation) {
		return ExitCodeConfigError
	}

	var single config.ValidationError
	if errors.As(err, &single) {
		return ExitCodeConfigError
	}

	return ExitCodeError
}

// loadConfig loads mcpkit.yaml for commands that do not serve.
func loadConfig() (config.Config, error) {
	return app.NewConfig(debug, configPath).LoadConfig()
}

// configDir returns the directory of the configuration file.
func configDir() string {
	path := configPath
	if path == "" {
		path = "."
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return path
	}
	return filepath.Dir(path)
}

// printReport writes the detailed definition error report to stderr.
func printReport(cmd *cobra.Command, err error) {
	fmt.Fprintln(cmd.ErrOrStderr(), app.ReportErrors(err))
}

func init() {
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "Configuration file or directory containing "+config.FileName)
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
}
