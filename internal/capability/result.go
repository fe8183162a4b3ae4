package capability

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// TextResult returns a successful result with one text block.
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(text)},
	}
}

// JSONResult returns v as indented JSON text and as structured content.
func JSONResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.NewTextContent(string(data))},
		StructuredContent: v,
	}, nil
}

// ErrorResult returns a tool-level error result.
func ErrorResult(format string, args ...interface{}) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf(format, args...))
}

// ImageResult returns data as a base64 image block.
func ImageResult(data []byte, mimeType string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewImageContent(base64.StdEncoding.EncodeToString(data), mimeType)},
	}
}

// ResultText concatenates the text blocks of a result.
func ResultText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	var text string
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			text += tc.Text
		}
	}
	return text
}

// ResultCodec stores tool results in a response cache. Error results are
// refused.
type ResultCodec struct {
	// NotCacheable is returned by Encode for error results.
	NotCacheable error
}

// Encode marshals a successful result.
func (c ResultCodec) Encode(result *mcp.CallToolResult) ([]byte, error) {
	if result == nil || result.IsError {
		if c.NotCacheable != nil {
			return nil, c.NotCacheable
		}
		return nil, errors.New("error results are not cached")
	}
	return json.Marshal(result)
}

// Decode parses a stored result.
func (ResultCodec) Decode(data []byte) (*mcp.CallToolResult, error) {
	raw := json.RawMessage(data)
	return mcp.ParseCallToolResult(&raw)
}
