package capability

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcpkit/internal/identifier"
)

// ErrNoName is returned when a definition has neither an explicit name nor
// a source file to derive one from.
var ErrNoName = errors.New("definition has no name and no source filename")

// ToolFunc is the compiled invocation function of a tool.
type ToolFunc func(ctx context.Context, args map[string]interface{}) (*mcp.CallToolResult, error)

// ResourceFunc reads a resource. args holds the variables matched from a
// URI template, or is empty for static resources.
type ResourceFunc func(ctx context.Context, uri string, args map[string]interface{}) ([]mcp.ResourceContents, error)

// PromptFunc renders a prompt.
type PromptFunc func(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error)

// Provenance records where a definition was loaded from.
type Provenance struct {
	Filename   string `yaml:"filename" json:"filename"`
	Path       string `yaml:"path" json:"path"`
	Overlay    string `yaml:"overlay" json:"overlay"`
	Identifier string `yaml:"identifier" json:"identifier"`
}

// finalize fills name and title from the provenance filename when they
// are empty. Explicit values are never touched, so calling it again is a
// no-op.
func (p Provenance) finalize(name, title *string) error {
	base := identifier.StripExtension(p.Filename)
	if *name == "" {
		if p.Filename == "" || base == "" {
			return ErrNoName
		}
		*name = identifier.Name(base)
	}
	if *title == "" {
		if base != "" {
			*title = identifier.Title(base)
		} else {
			*title = identifier.Title(*name)
		}
	}
	return nil
}

// Annotations are the behavioural hints of a tool.
type Annotations struct {
	Title           string `yaml:"title,omitempty" json:"title,omitempty"`
	ReadOnlyHint    *bool  `yaml:"readOnlyHint,omitempty" json:"readOnlyHint,omitempty"`
	DestructiveHint *bool  `yaml:"destructiveHint,omitempty" json:"destructiveHint,omitempty"`
	IdempotentHint  *bool  `yaml:"idempotentHint,omitempty" json:"idempotentHint,omitempty"`
	OpenWorldHint   *bool  `yaml:"openWorldHint,omitempty" json:"openWorldHint,omitempty"`
}

// CachePolicy configures response caching for a tool. In definition files
// it is written as a duration string ("1h"), a number of milliseconds, or
// an object:
//
//	cache:
//	  maxAge: 10m
//	  staleWhileRevalidate: 1h
//	  key: "{{ .owner }}/{{ .repo }}"
type CachePolicy struct {
	MaxAge               time.Duration `yaml:"maxAge" json:"maxAge"`
	StaleWhileRevalidate time.Duration `yaml:"staleWhileRevalidate,omitempty" json:"staleWhileRevalidate,omitempty"`
	// Key is an optional text/template rendered over the call arguments.
	Key string `yaml:"key,omitempty" json:"key,omitempty"`
}

// UnmarshalYAML implements custom unmarshaling to support the shorthand
// forms.
func (c *CachePolicy) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		d, err := parseDuration(value)
		if err != nil {
			return err
		}
		*c = CachePolicy{MaxAge: d}
		return nil
	}

	var raw struct {
		MaxAge               yaml.Node `yaml:"maxAge"`
		StaleWhileRevalidate yaml.Node `yaml:"staleWhileRevalidate"`
		Key                  string    `yaml:"key"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	maxAge, err := parseDuration(&raw.MaxAge)
	if err != nil {
		return fmt.Errorf("maxAge: %w", err)
	}
	swr, err := parseDuration(&raw.StaleWhileRevalidate)
	if err != nil {
		return fmt.Errorf("staleWhileRevalidate: %w", err)
	}
	*c = CachePolicy{MaxAge: maxAge, StaleWhileRevalidate: swr, Key: raw.Key}
	return nil
}

// parseDuration reads a Go duration string or a number of milliseconds.
func parseDuration(node *yaml.Node) (time.Duration, error) {
	if node.Kind == 0 || node.Value == "" {
		return 0, nil
	}
	if node.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("line %d: expected a duration", node.Line)
	}
	if ms, err := strconv.ParseFloat(node.Value, 64); err == nil {
		if ms < 0 {
			return 0, fmt.Errorf("line %d: negative duration %s", node.Line, node.Value)
		}
		return time.Duration(ms * float64(time.Millisecond)), nil
	}
	d, err := time.ParseDuration(node.Value)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid duration %q", node.Line, node.Value)
	}
	if d < 0 {
		return 0, fmt.Errorf("line %d: negative duration %s", node.Line, node.Value)
	}
	return d, nil
}

// ToolDefinition describes an invocable action.
type ToolDefinition struct {
	Name          string                   `yaml:"name,omitempty" json:"name,omitempty"`
	Title         string                   `yaml:"title,omitempty" json:"title,omitempty"`
	Description   string                   `yaml:"description,omitempty" json:"description,omitempty"`
	InputSchema   map[string]interface{}   `yaml:"inputSchema,omitempty" json:"inputSchema,omitempty"`
	OutputSchema  map[string]interface{}   `yaml:"outputSchema,omitempty" json:"outputSchema,omitempty"`
	Annotations   *Annotations             `yaml:"annotations,omitempty" json:"annotations,omitempty"`
	InputExamples []map[string]interface{} `yaml:"inputExamples,omitempty" json:"inputExamples,omitempty"`
	Cache         *CachePolicy             `yaml:"cache,omitempty" json:"cache,omitempty"`

	// Exactly one of Action and Template binds the invocation function.
	Action   string                 `yaml:"action,omitempty" json:"action,omitempty"`
	With     map[string]interface{} `yaml:"with,omitempty" json:"with,omitempty"`
	Template string                 `yaml:"template,omitempty" json:"template,omitempty"`

	Provenance Provenance `yaml:"-" json:"provenance"`
	Handler    ToolFunc   `yaml:"-" json:"-"`
}

// Finalize derives name and title from the provenance when absent.
func (d *ToolDefinition) Finalize() error {
	return d.Provenance.finalize(&d.Name, &d.Title)
}

// ResourceDefinition describes a readable data source.
type ResourceDefinition struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	Title       string `yaml:"title,omitempty" json:"title,omitempty"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	URI         string `yaml:"uri,omitempty" json:"uri,omitempty"`
	URITemplate string `yaml:"uriTemplate,omitempty" json:"uriTemplate,omitempty"`
	MIMEType    string `yaml:"mimeType,omitempty" json:"mimeType,omitempty"`

	// Exactly one of File, Text and Action binds the read function. File
	// is resolved relative to the definition file.
	File   string                 `yaml:"file,omitempty" json:"file,omitempty"`
	Text   string                 `yaml:"text,omitempty" json:"text,omitempty"`
	Action string                 `yaml:"action,omitempty" json:"action,omitempty"`
	With   map[string]interface{} `yaml:"with,omitempty" json:"with,omitempty"`

	Provenance Provenance   `yaml:"-" json:"provenance"`
	Handler    ResourceFunc `yaml:"-" json:"-"`
}

// Finalize derives name and title from the provenance when absent.
func (d *ResourceDefinition) Finalize() error {
	return d.Provenance.finalize(&d.Name, &d.Title)
}

// IsTemplate reports whether the resource is addressed by a URI template.
func (d *ResourceDefinition) IsTemplate() bool {
	return d.URITemplate != ""
}

// PromptArgument is one declared prompt argument.
type PromptArgument struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

// PromptMessage is one templated prompt message.
type PromptMessage struct {
	Role string `yaml:"role,omitempty" json:"role,omitempty"`
	Text string `yaml:"text" json:"text"`
}

// PromptDefinition describes a reusable message template.
type PromptDefinition struct {
	Name        string           `yaml:"name,omitempty" json:"name,omitempty"`
	Title       string           `yaml:"title,omitempty" json:"title,omitempty"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Arguments   []PromptArgument `yaml:"arguments,omitempty" json:"arguments,omitempty"`
	Messages    []PromptMessage  `yaml:"messages,omitempty" json:"messages,omitempty"`

	Provenance Provenance `yaml:"-" json:"provenance"`
	Handler    PromptFunc `yaml:"-" json:"-"`
}

// Finalize derives name and title from the provenance when absent.
func (d *PromptDefinition) Finalize() error {
	return d.Provenance.finalize(&d.Name, &d.Title)
}

// HandlerDefinition is a routing override as written in a handler file.
// A nil capability list is unset; an empty list is an explicit empty
// subset.
type HandlerDefinition struct {
	Name            string    `yaml:"name,omitempty" json:"name,omitempty"`
	Version         string    `yaml:"version,omitempty" json:"version,omitempty"`
	Route           string    `yaml:"route,omitempty" json:"route,omitempty"`
	BrowserRedirect string    `yaml:"browserRedirect,omitempty" json:"browserRedirect,omitempty"`
	Middleware      string    `yaml:"middleware,omitempty" json:"middleware,omitempty"`
	Tools           *[]string `yaml:"tools,omitempty" json:"tools,omitempty"`
	Resources       *[]string `yaml:"resources,omitempty" json:"resources,omitempty"`
	Prompts         *[]string `yaml:"prompts,omitempty" json:"prompts,omitempty"`

	Provenance Provenance `yaml:"-" json:"provenance"`
}

// IsNamed reports whether the handler carries an explicit name.
func (d *HandlerDefinition) IsNamed() bool {
	return d.Name != ""
}

// provenanceFor builds the provenance of a file.
func provenanceFor(path, overlayName, id string) Provenance {
	return Provenance{
		Filename:   filepath.Base(path),
		Path:       path,
		Overlay:    overlayName,
		Identifier: id,
	}
}
