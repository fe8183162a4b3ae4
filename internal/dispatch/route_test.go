package dispatch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcpkit/internal/overlay"
	"github.com/giantswarm/mcpkit/internal/registry"
)

// buildRegistry compiles one overlay per file map, lowest precedence
// first.
func buildRegistry(t *testing.T, layers ...map[string]string) *registry.Registry {
	t.Helper()
	var overlays []overlay.Overlay
	for i, files := range layers {
		root := filepath.Join(t.TempDir(), []string{"base", "app"}[i])
		for rel, content := range files {
			path := filepath.Join(root, rel)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		}
		o, err := overlay.New(root)
		require.NoError(t, err)
		overlays = append(overlays, o)
	}

	d, err := registry.Discover(registry.Options{Overlays: overlays})
	require.NoError(t, err)
	r, err := registry.Compile(d, registry.Bindings{Middleware: DefaultMiddleware()})
	require.NoError(t, err)
	return r
}

var globals = map[string]string{
	"mcp/tools/echo.yaml":       "action: echo\n",
	"mcp/tools/reverse.yaml":    "action: reverse\n",
	"mcp/resources/readme.yaml": "uri: docs://readme\ntext: read me\n",
	"mcp/prompts/greet.yaml":    "messages:\n  - text: hi\n",
}

func with(files map[string]string, extra map[string]string) map[string]string {
	out := make(map[string]string, len(files)+len(extra))
	for k, v := range files {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

var testConfig = Config{Name: "Docs", Version: "1.0.0", BrowserRedirect: "/", Route: "/mcp"}

func toolNames(rt Route) []string {
	var names []string
	for _, t := range rt.Tools {
		names = append(names, t.Name)
	}
	return names
}

func TestResolve_GlobalRegistry(t *testing.T) {
	r := NewResolver(buildRegistry(t, globals), testConfig)

	rt, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, SourceGlobal, rt.Source)
	assert.Equal(t, "Docs", rt.Name)
	assert.Equal(t, "1.0.0", rt.Version)
	assert.Equal(t, "/", rt.BrowserRedirect)
	assert.Equal(t, []string{"echo", "reverse"}, toolNames(rt))
	assert.Len(t, rt.Resources, 1)
	assert.Len(t, rt.Prompts, 1)
	assert.Empty(t, rt.Middleware)
}

func TestResolve_GlobalRegistryDefaultName(t *testing.T) {
	r := NewResolver(buildRegistry(t, globals), Config{Version: "1.0.0"})

	rt, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultServerName, rt.Name)
}

func TestResolve_DefaultOverrideFallsBackPerField(t *testing.T) {
	r := NewResolver(buildRegistry(t, with(globals, map[string]string{
		"mcp/index.yaml": "version: 2.0.0\n",
	})), testConfig)

	rt, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, rt.Source)
	assert.Equal(t, "Docs", rt.Name)
	assert.Equal(t, "2.0.0", rt.Version)
	assert.Equal(t, []string{"echo", "reverse"}, toolNames(rt))
	assert.Len(t, rt.Resources, 1)
	assert.Len(t, rt.Prompts, 1)
}

func TestResolve_DefaultOverrideCuratesSetFields(t *testing.T) {
	r := NewResolver(buildRegistry(t, with(globals, map[string]string{
		"mcp/index.yaml": "name: Curated\ntools: [reverse]\nprompts: []\nmiddleware: timing\n",
	})), testConfig)

	rt, err := r.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "Curated", rt.Name)
	assert.Equal(t, []string{"reverse"}, toolNames(rt))
	assert.Len(t, rt.Resources, 1)
	assert.Empty(t, rt.Prompts)
	assert.Equal(t, "timing", rt.Middleware)
}

func TestResolve_NamedHandlerWinsOverDefault(t *testing.T) {
	r := NewResolver(buildRegistry(t, with(globals, map[string]string{
		"mcp/index.yaml": "version: 2.0.0\n",
		"mcp/foo.yaml":   "name: foo\ntools: []\n",
		"mcp/bar.yaml":   "name: bar\nversion: 3.0.0\nbrowserRedirect: /docs\ntools: [echo]\nmiddleware: request-id\n",
	})), testConfig)

	foo, err := r.Resolve("foo")
	require.NoError(t, err)
	assert.Equal(t, SourceNamed, foo.Source)
	assert.Equal(t, "foo", foo.Name)
	assert.Equal(t, "foo", foo.Handler)
	assert.Equal(t, "1.0.0", foo.Version)
	assert.Equal(t, "/", foo.BrowserRedirect)
	assert.NotNil(t, foo.Tools)
	assert.Empty(t, foo.Tools)
	// Unset lists are not filled from the registry.
	assert.Empty(t, foo.Resources)
	assert.Empty(t, foo.Prompts)

	bar, err := r.Resolve("bar")
	require.NoError(t, err)
	assert.Equal(t, "3.0.0", bar.Version)
	assert.Equal(t, "/docs", bar.BrowserRedirect)
	assert.Equal(t, []string{"echo"}, toolNames(bar))
	assert.Equal(t, "request-id", bar.Middleware)
}

func TestResolve_HandlerNotFound(t *testing.T) {
	r := NewResolver(buildRegistry(t, globals), testConfig)

	_, err := r.Resolve("missing")
	require.Error(t, err)
	assert.True(t, IsHandlerNotFound(err))
	assert.EqualError(t, err, `handler "missing" not found`)
}

func TestResolve_OverriddenToolFromApp(t *testing.T) {
	r := NewResolver(buildRegistry(t, globals, map[string]string{
		"mcp/tools/echo.yaml": "description: reversed\naction: reverse\n",
	}), testConfig)

	rt, err := r.Resolve("")
	require.NoError(t, err)
	require.Len(t, rt.Tools, 2)
	assert.Equal(t, "echo", rt.Tools[0].Name)
	assert.Equal(t, "reversed", rt.Tools[0].Description)
}
