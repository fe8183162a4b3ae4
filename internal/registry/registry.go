package registry

import (
	"sort"

	"github.com/giantswarm/mcpkit/internal/capability"
)

// HandlerOverride is a compiled routing override. A nil capability list
// means the override leaves that kind unset.
type HandlerOverride struct {
	Name            string
	Version         string
	Route           string
	BrowserRedirect string
	Middleware      string
	Tools           []*capability.ToolDefinition
	Resources       []*capability.ResourceDefinition
	Prompts         []*capability.PromptDefinition
	Provenance      capability.Provenance
}

// KindStats summarises the resolution of one kind.
type KindStats struct {
	Kind       capability.Kind `json:"kind" yaml:"kind"`
	Candidates int             `json:"candidates" yaml:"candidates"`
	Compiled   int             `json:"compiled" yaml:"compiled"`
	Overridden int             `json:"overridden" yaml:"overridden"`
}

// Registry is the compiled, read-only set of capabilities and handler
// overrides. It is safe for concurrent use without locking because it is
// never mutated after Compile returns.
type Registry struct {
	tools          []*capability.ToolDefinition
	resources      []*capability.ResourceDefinition
	prompts        []*capability.PromptDefinition
	handlers       map[string]*HandlerOverride
	defaultHandler *HandlerOverride
	stats          []KindStats
}

// Tools returns the tools in resolution order.
func (r *Registry) Tools() []*capability.ToolDefinition {
	return append([]*capability.ToolDefinition(nil), r.tools...)
}

// Resources returns the resources in resolution order.
func (r *Registry) Resources() []*capability.ResourceDefinition {
	return append([]*capability.ResourceDefinition(nil), r.resources...)
}

// Prompts returns the prompts in resolution order.
func (r *Registry) Prompts() []*capability.PromptDefinition {
	return append([]*capability.PromptDefinition(nil), r.prompts...)
}

// Handler looks up a named handler override.
func (r *Registry) Handler(name string) (*HandlerOverride, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Handlers returns the named handler overrides sorted by name.
func (r *Registry) Handlers() []*HandlerOverride {
	out := make([]*HandlerOverride, 0, len(r.handlers))
	for _, h := range r.handlers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DefaultHandler returns the default handler override, or nil.
func (r *Registry) DefaultHandler() *HandlerOverride {
	return r.defaultHandler
}

// Stats returns per-kind resolution statistics.
func (r *Registry) Stats() []KindStats {
	return append([]KindStats(nil), r.stats...)
}

// Tool looks up a tool by final name.
func (r *Registry) Tool(name string) (*capability.ToolDefinition, bool) {
	for _, t := range r.tools {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}
