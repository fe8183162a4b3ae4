package capability

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// Call is the input of a tool action.
type Call struct {
	// Tool is the final name of the invoked tool.
	Tool      string
	Arguments map[string]interface{}
	// Params holds the static "with" block of the definition.
	Params map[string]interface{}
}

// ResourceCall is the input of a resource action.
type ResourceCall struct {
	URI       string
	Arguments map[string]interface{}
	Params    map[string]interface{}
	// BaseDir is the directory of the definition file.
	BaseDir string
	// MIMEType is the declared MIME type, possibly empty.
	MIMEType string
}

// ToolAction implements the invocation function of tools bound with
// "action:".
type ToolAction func(ctx context.Context, call Call) (*mcp.CallToolResult, error)

// ResourceAction implements the read function of resources bound with
// "action:".
type ResourceAction func(ctx context.Context, call ResourceCall) ([]mcp.ResourceContents, error)

// ActionSet maps action names to Go functions. It is safe for concurrent
// use.
type ActionSet struct {
	mu        sync.RWMutex
	tools     map[string]ToolAction
	resources map[string]ResourceAction
}

// NewActionSet creates an empty action set.
func NewActionSet() *ActionSet {
	return &ActionSet{
		tools:     make(map[string]ToolAction),
		resources: make(map[string]ResourceAction),
	}
}

// DefaultActions returns an action set holding the built-in actions.
func DefaultActions() *ActionSet {
	s := NewActionSet()
	s.RegisterTool("echo", echoAction)
	s.RegisterTool("reverse", reverseAction)
	s.RegisterTool("time.now", timeNowAction)
	s.RegisterTool("math.calculate", calculateAction)
	s.RegisterResource("file.read", fileReadAction)
	return s
}

// RegisterTool adds or replaces a tool action.
func (s *ActionSet) RegisterTool(name string, fn ToolAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tools[name] = fn
}

// RegisterResource adds or replaces a resource action.
func (s *ActionSet) RegisterResource(name string, fn ResourceAction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[name] = fn
}

// Tool looks up a tool action.
func (s *ActionSet) Tool(name string) (ToolAction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.tools[name]
	return fn, ok
}

// Resource looks up a resource action.
func (s *ActionSet) Resource(name string) (ResourceAction, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn, ok := s.resources[name]
	return fn, ok
}

// Names returns the sorted tool and resource action names.
func (s *ActionSet) Names() (tools, resources []string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for name := range s.tools {
		tools = append(tools, name)
	}
	for name := range s.resources {
		resources = append(resources, name)
	}
	sort.Strings(tools)
	sort.Strings(resources)
	return tools, resources
}

// stringParam returns call.Params[key] as a string, or def.
func stringParam(params map[string]interface{}, key, def string) string {
	if v, ok := params[key].(string); ok && v != "" {
		return v
	}
	return def
}

// textArgument reads the argument selected by the "field" param, "text"
// by default.
func textArgument(call Call) (string, error) {
	field := stringParam(call.Params, "field", "text")
	v, ok := call.Arguments[field]
	if !ok {
		return "", fmt.Errorf("missing argument %q", field)
	}
	return fmt.Sprint(v), nil
}

func echoAction(_ context.Context, call Call) (*mcp.CallToolResult, error) {
	text, err := textArgument(call)
	if err != nil {
		return nil, err
	}
	return TextResult(stringParam(call.Params, "prefix", "") + text), nil
}

func reverseAction(_ context.Context, call Call) (*mcp.CallToolResult, error) {
	text, err := textArgument(call)
	if err != nil {
		return nil, err
	}
	runes := []rune(text)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return TextResult(string(runes)), nil
}

// timeNow is replaced in tests.
var timeNow = time.Now

func timeNowAction(_ context.Context, call Call) (*mcp.CallToolResult, error) {
	format := stringParam(call.Params, "format", time.RFC3339)
	if f, ok := call.Arguments["format"].(string); ok && f != "" {
		format = f
	}

	now := timeNow()
	zone := stringParam(call.Params, "timezone", "")
	if tz, ok := call.Arguments["timezone"].(string); ok && tz != "" {
		zone = tz
	}
	if zone != "" {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, fmt.Errorf("unknown timezone %q: %w", zone, err)
		}
		now = now.In(loc)
	}
	return TextResult(now.Format(format)), nil
}

func calculateAction(_ context.Context, call Call) (*mcp.CallToolResult, error) {
	a, err := numberArgument(call.Arguments, "a")
	if err != nil {
		return nil, err
	}
	b, err := numberArgument(call.Arguments, "b")
	if err != nil {
		return nil, err
	}
	op, _ := call.Arguments["operation"].(string)

	var result float64
	switch op {
	case "add", "+":
		result = a + b
	case "subtract", "-":
		result = a - b
	case "multiply", "*":
		result = a * b
	case "divide", "/":
		if b == 0 {
			return nil, fmt.Errorf("division by zero")
		}
		result = a / b
	default:
		return nil, fmt.Errorf("unsupported operation %q", op)
	}
	return JSONResult(map[string]interface{}{"operation": op, "result": result})
}

func numberArgument(args map[string]interface{}, key string) (float64, error) {
	switch v := args[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case nil:
		return 0, fmt.Errorf("missing argument %q", key)
	default:
		return 0, fmt.Errorf("argument %q must be a number, got %T", key, v)
	}
}

func fileReadAction(_ context.Context, call ResourceCall) ([]mcp.ResourceContents, error) {
	path := stringParam(call.Params, "path", "")
	if p, ok := call.Arguments["path"].(string); ok && p != "" {
		path = p
	}
	if path == "" {
		return nil, fmt.Errorf("file.read requires a path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(call.BaseDir, path)
	}
	return readFileContents(call.URI, path, call.MIMEType)
}

// readFileContents reads path as text or blob contents depending on its
// MIME type.
func readFileContents(uri, path, mimeType string) ([]mcp.ResourceContents, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if mimeType == "" {
		mimeType = GuessMIME(path)
	}
	if IsTextMIME(mimeType) {
		return []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, MIMEType: mimeType, Text: string(data)}}, nil
	}
	return []mcp.ResourceContents{mcp.BlobResourceContents{
		URI:      uri,
		MIMEType: mimeType,
		Blob:     base64.StdEncoding.EncodeToString(data),
	}}, nil
}
