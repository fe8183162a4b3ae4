package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command with args and returns stdout and
// stderr. Package-level flag values are restored afterwards.
func runCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	saved := []interface{}{configPath, debug, checkQuiet}
	t.Cleanup(func() {
		configPath = saved[0].(string)
		debug = saved[1].(bool)
		checkQuiet = saved[2].(bool)
		rootCmd.SetArgs(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for rel, content := range files {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func TestCheckCommand(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"mcp/tools/echo.yaml":    "action: echo\n",
		"mcp/prompts/greet.yaml": "messages:\n  - text: hi\n",
		"mcp/index.yaml":         "version: 2.0.0\n",
	})

	stdout, _, err := runCommand(t, "check", "--config", dir)
	require.NoError(t, err)
	assert.Equal(t, "Configuration OK: 1 tools, 0 resources, 1 prompts, 0 handlers, default handler\n", stdout)
}

func TestCheckCommand_DefinitionErrors(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"mcp/tools/broken.yaml": "action: missing\n",
	})

	_, stderr, err := runCommand(t, "check", "--config", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCodeConfigError, getExitCode(err))
	assert.Contains(t, stderr, "broken.yaml")
}

func TestCheckCommand_QuietSummarizesErrors(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"mcp/tools/broken.yaml": "action: missing\n",
	})

	_, stderr, err := runCommand(t, "check", "-q", "--config", dir)
	require.Error(t, err)
	assert.Contains(t, stderr, "Configuration Error Summary (1 total errors)")
	assert.Contains(t, stderr, "broken.yaml")
	assert.NotContains(t, stderr, "Detailed Configuration Error Report")
}
