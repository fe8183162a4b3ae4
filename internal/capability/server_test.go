package capability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/mcpkit/internal/cache"
)

func TestMCPTool_SchemaPassthrough(t *testing.T) {
	readOnly := true
	def := &ToolDefinition{
		Name:  "echo",
		Title: "Echo",
		InputSchema: map[string]interface{}{
			"type":       "object",
			"properties": map[string]interface{}{"text": map[string]interface{}{"type": "string", "minLength": 1}},
			"required":   []interface{}{"text"},
		},
		Annotations: &Annotations{ReadOnlyHint: &readOnly},
	}

	tool, err := def.MCPTool()
	require.NoError(t, err)
	assert.Equal(t, "echo", tool.Name)
	assert.Equal(t, "Echo", tool.Description)
	assert.Equal(t, "Echo", tool.Annotations.Title)
	require.NotNil(t, tool.Annotations.ReadOnlyHint)
	assert.True(t, *tool.Annotations.ReadOnlyHint)

	var schema map[string]interface{}
	require.NoError(t, json.Unmarshal(tool.RawInputSchema, &schema))
	assert.Equal(t, []interface{}{"text"}, schema["required"])
	props := schema["properties"].(map[string]interface{})
	assert.Equal(t, 1.0, props["text"].(map[string]interface{})["minLength"])
}

func TestToolHandler_ErrorsBecomeResults(t *testing.T) {
	var req mcp.CallToolRequest
	req.Params.Name = "boom"
	req.Params.Arguments = map[string]interface{}{"x": 1}

	failing := ToolHandler("boom", func(context.Context, map[string]interface{}) (*mcp.CallToolResult, error) {
		return nil, errors.New("kaput")
	})
	res, err := failing(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "kaput", ResultText(res))

	panicking := ToolHandler("boom", func(context.Context, map[string]interface{}) (*mcp.CallToolResult, error) {
		panic("nil map")
	})
	res, err = panicking(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)

	cachedPanic := ToolHandler("boom", func(context.Context, map[string]interface{}) (*mcp.CallToolResult, error) {
		return nil, &cache.PanicError{Key: "mcp-tool:boom:1", Value: "nil map"}
	})
	res, err = cachedPanic(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "tool boom failed: internal error", ResultText(res))
}

func TestToolHandler_PassesArguments(t *testing.T) {
	var got map[string]interface{}
	h := ToolHandler("t", func(_ context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
		got = args
		return nil, nil
	})

	var req mcp.CallToolRequest
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.NotNil(t, got)
}

func TestMatchURITemplate(t *testing.T) {
	tmpl, err := ParseURITemplate("repo://{owner}/{name}")
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"owner": "giantswarm", "name": "mcpkit"},
		MatchURITemplate(tmpl, "repo://giantswarm/mcpkit"))
	assert.Empty(t, MatchURITemplate(tmpl, "other://x"))
}

func TestResultHelpers(t *testing.T) {
	res, err := JSONResult(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, ResultText(res))

	img := ImageResult([]byte("abc"), "image/png")
	require.Len(t, img.Content, 1)
	ic, ok := img.Content[0].(mcp.ImageContent)
	require.True(t, ok)
	assert.Equal(t, "YWJj", ic.Data)

	assert.True(t, ErrorResult("bad %d", 1).IsError)
}
