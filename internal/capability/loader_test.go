package capability

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDefinition(t *testing.T, dir, name, content string) Source {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return Source{Path: path, Overlay: "test", Identifier: "id"}
}

func TestLoadTool_Action(t *testing.T) {
	src := writeDefinition(t, t.TempDir(), "echo.yaml", `
description: Echo the input
inputSchema:
  type: object
  properties:
    text: {type: string}
action: echo
with:
  prefix: "> "
`)
	def, err := LoadTool(src, DefaultActions())
	require.NoError(t, err)
	assert.Equal(t, "echo.yaml", def.Provenance.Filename)
	assert.Empty(t, def.Name, "names are derived by the registry, not the loader")

	res, err := def.Handler(context.Background(), map[string]interface{}{"text": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "> hi", ResultText(res))
}

func TestLoadTool_TemplateJSONC(t *testing.T) {
	src := writeDefinition(t, t.TempDir(), "greet.json", `{
  // greets people
  "description": "Greet",
  "template": "Hello {{ .name | upper }}!",
}`)
	def, err := LoadTool(src, DefaultActions())
	require.NoError(t, err)

	res, err := def.Handler(context.Background(), map[string]interface{}{"name": "ada"})
	require.NoError(t, err)
	assert.Equal(t, "Hello ADA!", ResultText(res))
}

func TestLoadTool_TemplateReadsRequestValues(t *testing.T) {
	src := writeDefinition(t, t.TempDir(), "whoami.yaml", `template: 'id={{ request "requestId" }}'`)
	def, err := LoadTool(src, DefaultActions())
	require.NoError(t, err)

	ctx := WithValues(context.Background(), map[string]interface{}{"requestId": "abc"})
	res, err := def.Handler(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "id=abc", ResultText(res))
}

func TestLoadTool_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errType string
	}{
		{"missing invocation", "description: nothing", ErrorTypeValidation},
		{"both bindings", "action: echo\ntemplate: x", ErrorTypeValidation},
		{"unknown action", "action: nope", ErrorTypeReference},
		{"unknown field", "action: echo\nhandler: x", ErrorTypeParse},
		{"broken yaml", "action: [", ErrorTypeParse},
		{"empty file", "", ErrorTypeParse},
		{"bad template", "template: '{{ .x '", ErrorTypeValidation},
		{"zero cache", "action: echo\ncache: 0", ErrorTypeValidation},
		{"schema not object", "action: echo\ninputSchema: {type: string}", ErrorTypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeDefinition(t, t.TempDir(), "broken.yaml", tt.content)
			_, err := LoadTool(src, DefaultActions())
			require.Error(t, err)

			var loadErr *LoadError
			require.True(t, errors.As(err, &loadErr))
			assert.Equal(t, tt.errType, loadErr.Type)
			assert.Equal(t, src.Path, loadErr.Path)
			assert.Contains(t, err.Error(), src.Path)
		})
	}
}

func TestLoadTool_MissingFile(t *testing.T) {
	_, err := LoadTool(Source{Path: filepath.Join(t.TempDir(), "gone.yaml")}, DefaultActions())
	var loadErr *LoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, ErrorTypeIO, loadErr.Type)
}

func TestCachePolicy_Forms(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    CachePolicy
	}{
		{"duration string", "cache: 1h", CachePolicy{MaxAge: time.Hour}},
		{"milliseconds", "cache: 1500", CachePolicy{MaxAge: 1500 * time.Millisecond}},
		{"object", "cache:\n  maxAge: 10m\n  staleWhileRevalidate: 60000\n  key: '{{ .id }}'",
			CachePolicy{MaxAge: 10 * time.Minute, StaleWhileRevalidate: time.Minute, Key: "{{ .id }}"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeDefinition(t, t.TempDir(), "cached.yaml", "action: echo\n"+tt.content)
			def, err := LoadTool(src, DefaultActions())
			require.NoError(t, err)
			require.NotNil(t, def.Cache)
			assert.Equal(t, tt.want, *def.Cache)
		})
	}
}

func TestLoadResource_File(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# Hello"), 0o644))
	src := writeDefinition(t, dir, "mcp/resources/readme.yaml", "description: Readme\nfile: ../../README.md\n")

	def, err := LoadResource(src, DefaultActions())
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", def.MIMEType)
	assert.Equal(t, "file://"+filepath.ToSlash(filepath.Join(dir, "README.md")), def.URI)

	contents, err := def.Handler(context.Background(), def.URI, nil)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "# Hello", text.Text)
}

func TestLoadResource_BinaryFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644))
	src := writeDefinition(t, dir, "logo.yaml", "file: logo.png\nuri: assets://logo\n")

	def, err := LoadResource(src, DefaultActions())
	require.NoError(t, err)
	assert.Equal(t, "assets://logo", def.URI)

	contents, err := def.Handler(context.Background(), def.URI, nil)
	require.NoError(t, err)
	blob, ok := contents[0].(mcp.BlobResourceContents)
	require.True(t, ok)
	assert.Equal(t, "image/png", blob.MIMEType)
	assert.Equal(t, "iVBORw==", blob.Blob)
}

func TestLoadResource_TemplateArguments(t *testing.T) {
	src := writeDefinition(t, t.TempDir(), "profile.yaml", `
uriTemplate: users://{id}/profile
text: "profile of {{ .id }}"
`)
	def, err := LoadResource(src, DefaultActions())
	require.NoError(t, err)
	require.True(t, def.IsTemplate())
	assert.Equal(t, "text/plain", def.MIMEType)

	var req mcp.ReadResourceRequest
	req.Params.URI = "users://42/profile"
	contents, err := def.ResourceHandler()(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "profile of 42", contents[0].(mcp.TextResourceContents).Text)
}

func TestLoadResource_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no binding", "uri: x://y"},
		{"text without uri", "text: hi"},
		{"two bindings", "uri: x://y\ntext: hi\naction: file.read"},
		{"uri and template", "uri: x://y\nuriTemplate: x://{a}\ntext: hi"},
		{"missing file", "file: nope.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := writeDefinition(t, t.TempDir(), "bad.yaml", tt.content)
			_, err := LoadResource(src, DefaultActions())
			require.Error(t, err)
		})
	}
}

func TestLoadPrompt(t *testing.T) {
	src := writeDefinition(t, t.TempDir(), "greeting.yml", `
description: Greeting prompt
arguments:
  - name: name
    required: true
messages:
  - text: "Say hello to {{ .name }}"
  - role: assistant
    text: "Hello {{ .name }}!"
`)
	def, err := LoadPrompt(src)
	require.NoError(t, err)

	res, err := def.Handler(context.Background(), map[string]string{"name": "Ada"})
	require.NoError(t, err)
	require.Len(t, res.Messages, 2)
	assert.Equal(t, mcp.RoleUser, res.Messages[0].Role)
	assert.Equal(t, mcp.RoleAssistant, res.Messages[1].Role)
	assert.Equal(t, "Hello Ada!", res.Messages[1].Content.(mcp.TextContent).Text)

	_, err = def.Handler(context.Background(), map[string]string{})
	assert.Error(t, err)
}

func TestLoadPrompt_Invalid(t *testing.T) {
	for name, content := range map[string]string{
		"no messages":  "description: x",
		"unknown role": "messages:\n  - role: system\n    text: hi",
		"unnamed arg":  "arguments: [{description: x}]\nmessages: [{text: hi}]",
	} {
		t.Run(name, func(t *testing.T) {
			src := writeDefinition(t, t.TempDir(), "p.yaml", content)
			_, err := LoadPrompt(src)
			require.Error(t, err)
		})
	}
}

func TestLoadHandler(t *testing.T) {
	src := writeDefinition(t, t.TempDir(), "admin.yaml", `
name: admin
version: 2.0.0
tools: []
prompts: [greeting]
middleware: request-id
`)
	def, err := LoadHandler(src)
	require.NoError(t, err)
	assert.True(t, def.IsNamed())
	require.NotNil(t, def.Tools)
	assert.Empty(t, *def.Tools)
	assert.Nil(t, def.Resources)
	assert.Equal(t, []string{"greeting"}, *def.Prompts)

	src = writeDefinition(t, t.TempDir(), "bad.yaml", "route: admin")
	_, err = LoadHandler(src)
	assert.Error(t, err)
}

func TestFinalize(t *testing.T) {
	def := &ToolDefinition{Provenance: Provenance{Filename: "list-documentation.yaml"}}
	require.NoError(t, def.Finalize())
	assert.Equal(t, "list-documentation", def.Name)
	assert.Equal(t, "List Documentation", def.Title)

	// A second pass changes nothing.
	def.Provenance.Filename = "other.yaml"
	require.NoError(t, def.Finalize())
	assert.Equal(t, "list-documentation", def.Name)

	explicit := &PromptDefinition{Name: "custom", Provenance: Provenance{Filename: "greeting_message.yaml"}}
	require.NoError(t, explicit.Finalize())
	assert.Equal(t, "custom", explicit.Name)
	assert.Equal(t, "Greeting Message", explicit.Title)

	anonymous := &ResourceDefinition{}
	assert.ErrorIs(t, anonymous.Finalize(), ErrNoName)
}
