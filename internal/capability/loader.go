package capability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// Load error types.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
	ErrorTypeReference  = "reference"
)

// LoadError is returned by the loaders when a definition file cannot be
// admitted.
type LoadError struct {
	Kind Kind
	Path string
	Type string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s %s: %s error: %v", e.Kind, e.Path, e.Type, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Source identifies one resolved definition file.
type Source struct {
	Path       string
	Overlay    string
	Identifier string
}

// Decode unmarshals a YAML or JSON-with-comments definition into out.
// Unknown fields are rejected.
func Decode(path string, data []byte, out interface{}) error {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data = jsonc.ToJSON(data)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty definition")
		}
		return err
	}
	return nil
}

// read loads and decodes the file of src into out.
func read(kind Kind, src Source, out interface{}) error {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return &LoadError{Kind: kind, Path: src.Path, Type: ErrorTypeIO, Err: err}
	}
	if err := Decode(src.Path, data, out); err != nil {
		return &LoadError{Kind: kind, Path: src.Path, Type: ErrorTypeParse, Err: err}
	}
	return nil
}

func invalid(kind Kind, src Source, format string, args ...interface{}) error {
	return &LoadError{Kind: kind, Path: src.Path, Type: ErrorTypeValidation, Err: fmt.Errorf(format, args...)}
}

// LoadTool loads and binds a tool definition.
func LoadTool(src Source, actions *ActionSet) (*ToolDefinition, error) {
	def := &ToolDefinition{}
	if err := read(KindTool, src, def); err != nil {
		return nil, err
	}
	def.Provenance = provenanceFor(src.Path, src.Overlay, src.Identifier)

	switch {
	case def.Action != "" && def.Template != "":
		return nil, invalid(KindTool, src, "action and template are mutually exclusive")
	case def.Action != "":
		action, ok := actions.Tool(def.Action)
		if !ok {
			return nil, &LoadError{Kind: KindTool, Path: src.Path, Type: ErrorTypeReference,
				Err: fmt.Errorf("unknown tool action %q", def.Action)}
		}
		params := def.With
		def.Handler = func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
			return action(ctx, Call{Tool: def.Name, Arguments: args, Params: params})
		}
	case def.Template != "":
		tmpl, err := ParseTemplate(src.Path, def.Template)
		if err != nil {
			return nil, invalid(KindTool, src, "%v", err)
		}
		def.Handler = func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error) {
			text, err := tmpl.Render(ctx, args)
			if err != nil {
				return nil, err
			}
			return TextResult(text), nil
		}
	default:
		return nil, invalid(KindTool, src, "missing invocation: set action or template")
	}

	if def.Cache != nil {
		if def.Cache.MaxAge <= 0 {
			return nil, invalid(KindTool, src, "cache maxAge must be positive")
		}
		if def.Cache.Key != "" {
			if _, err := ParseTemplate(src.Path+"#cache.key", def.Cache.Key); err != nil {
				return nil, invalid(KindTool, src, "%v", err)
			}
		}
	}
	if def.InputSchema != nil {
		if t, ok := def.InputSchema["type"]; ok && t != "object" {
			return nil, invalid(KindTool, src, "inputSchema type must be object, got %v", t)
		}
	}

	return def, nil
}

// LoadResource loads and binds a resource definition.
func LoadResource(src Source, actions *ActionSet) (*ResourceDefinition, error) {
	def := &ResourceDefinition{}
	if err := read(KindResource, src, def); err != nil {
		return nil, err
	}
	def.Provenance = provenanceFor(src.Path, src.Overlay, src.Identifier)
	baseDir := filepath.Dir(src.Path)

	bound := 0
	for _, set := range []string{def.File, def.Text, def.Action} {
		if set != "" {
			bound++
		}
	}
	if bound == 0 {
		return nil, invalid(KindResource, src, "missing read function: set file, text or action")
	}
	if bound > 1 {
		return nil, invalid(KindResource, src, "file, text and action are mutually exclusive")
	}
	if def.URI != "" && def.URITemplate != "" {
		return nil, invalid(KindResource, src, "uri and uriTemplate are mutually exclusive")
	}

	switch {
	case def.File != "":
		path := def.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return nil, &LoadError{Kind: KindResource, Path: src.Path, Type: ErrorTypeIO, Err: err}
		}
		if info.IsDir() {
			return nil, invalid(KindResource, src, "file %s is a directory", path)
		}
		if def.URI == "" && def.URITemplate == "" {
			def.URI = "file://" + filepath.ToSlash(path)
		}
		if def.MIMEType == "" {
			def.MIMEType = GuessMIME(path)
		}
		mimeType := def.MIMEType
		def.Handler = func(_ context.Context, uri string, _ map[string]interface{}) ([]mcp.ResourceContents, error) {
			return readFileContents(uri, path, mimeType)
		}

	case def.Text != "":
		tmpl, err := ParseTemplate(src.Path, def.Text)
		if err != nil {
			return nil, invalid(KindResource, src, "%v", err)
		}
		if def.MIMEType == "" {
			def.MIMEType = "text/plain"
		}
		mimeType := def.MIMEType
		def.Handler = func(ctx context.Context, uri string, args map[string]interface{}) ([]mcp.ResourceContents, error) {
			text, err := tmpl.Render(ctx, args)
			if err != nil {
				return nil, err
			}
			return []mcp.ResourceContents{mcp.TextResourceContents{URI: uri, MIMEType: mimeType, Text: text}}, nil
		}

	default:
		action, ok := actions.Resource(def.Action)
		if !ok {
			return nil, &LoadError{Kind: KindResource, Path: src.Path, Type: ErrorTypeReference,
				Err: fmt.Errorf("unknown resource action %q", def.Action)}
		}
		params := def.With
		mimeType := def.MIMEType
		def.Handler = func(ctx context.Context, uri string, args map[string]interface{}) ([]mcp.ResourceContents, error) {
			return action(ctx, ResourceCall{URI: uri, Arguments: args, Params: params, BaseDir: baseDir, MIMEType: mimeType})
		}
	}

	if def.URI == "" && def.URITemplate == "" {
		return nil, invalid(KindResource, src, "missing uri or uriTemplate")
	}
	if def.IsTemplate() {
		if _, err := ParseURITemplate(def.URITemplate); err != nil {
			return nil, invalid(KindResource, src, "%v", err)
		}
	}
	return def, nil
}

// LoadPrompt loads and binds a prompt definition.
func LoadPrompt(src Source) (*PromptDefinition, error) {
	def := &PromptDefinition{}
	if err := read(KindPrompt, src, def); err != nil {
		return nil, err
	}
	def.Provenance = provenanceFor(src.Path, src.Overlay, src.Identifier)

	if len(def.Messages) == 0 {
		return nil, invalid(KindPrompt, src, "missing messages")
	}
	for i, arg := range def.Arguments {
		if arg.Name == "" {
			return nil, invalid(KindPrompt, src, "argument %d has no name", i)
		}
	}

	type compiled struct {
		role mcp.Role
		tmpl *Template
	}
	messages := make([]compiled, 0, len(def.Messages))
	for i, m := range def.Messages {
		role := mcp.RoleUser
		switch m.Role {
		case "", "user":
		case "assistant":
			role = mcp.RoleAssistant
		default:
			return nil, invalid(KindPrompt, src, "message %d: unknown role %q", i, m.Role)
		}
		tmpl, err := ParseTemplate(fmt.Sprintf("%s#messages[%d]", src.Path, i), m.Text)
		if err != nil {
			return nil, invalid(KindPrompt, src, "%v", err)
		}
		messages = append(messages, compiled{role: role, tmpl: tmpl})
	}

	arguments := def.Arguments
	def.Handler = func(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
		data := make(map[string]interface{}, len(args))
		for _, a := range arguments {
			if _, ok := args[a.Name]; !ok && a.Required {
				return nil, fmt.Errorf("missing required argument %q", a.Name)
			}
		}
		for k, v := range args {
			data[k] = v
		}

		out := make([]mcp.PromptMessage, 0, len(messages))
		for _, m := range messages {
			text, err := m.tmpl.Render(ctx, data)
			if err != nil {
				return nil, err
			}
			out = append(out, mcp.NewPromptMessage(m.role, mcp.NewTextContent(text)))
		}
		return mcp.NewGetPromptResult(def.Description, out), nil
	}
	return def, nil
}

// LoadHandler loads a handler override definition. References to
// capabilities and middleware are checked by the registry.
func LoadHandler(src Source) (*HandlerDefinition, error) {
	def := &HandlerDefinition{}
	if err := read(KindHandler, src, def); err != nil {
		return nil, err
	}
	def.Provenance = provenanceFor(src.Path, src.Overlay, src.Identifier)

	if def.Route != "" && !strings.HasPrefix(def.Route, "/") {
		return nil, invalid(KindHandler, src, "route %q must start with /", def.Route)
	}
	return def, nil
}
