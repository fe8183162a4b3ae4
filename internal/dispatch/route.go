package dispatch

import (
	"errors"
	"fmt"

	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/registry"
)

// DefaultServerName is used when neither the configuration nor the default
// handler override names the server.
const DefaultServerName = "MCP Server"

// Config holds the server-wide settings a Route falls back to.
type Config struct {
	Name            string
	Version         string
	BrowserRedirect string
	// Route is the base path of the endpoint, e.g. "/mcp".
	Route string
}

// Source tells which of the three resolution states produced a Route.
type Source int

const (
	// SourceGlobal exposes the whole registry.
	SourceGlobal Source = iota
	// SourceDefault applies the default handler override on top of the
	// registry.
	SourceDefault
	// SourceNamed is a named handler override.
	SourceNamed
)

func (s Source) String() string {
	switch s {
	case SourceDefault:
		return "default"
	case SourceNamed:
		return "named"
	default:
		return "global"
	}
}

// Route is the effective surface served for one request.
type Route struct {
	Source Source
	// Handler is the requested handler name, empty on the base route.
	Handler         string
	Name            string
	Version         string
	BrowserRedirect string
	Middleware      string
	Tools           []*capability.ToolDefinition
	Resources       []*capability.ResourceDefinition
	Prompts         []*capability.PromptDefinition
}

// HandlerNotFoundError is returned when a request names a handler that does
// not exist.
type HandlerNotFoundError struct {
	Name string
}

func (e *HandlerNotFoundError) Error() string {
	return fmt.Sprintf("handler %q not found", e.Name)
}

// IsHandlerNotFound reports whether err is a HandlerNotFoundError.
func IsHandlerNotFound(err error) bool {
	var nf *HandlerNotFoundError
	return errors.As(err, &nf)
}

// Resolver selects the Route of a request from an immutable registry.
type Resolver struct {
	registry *registry.Registry
	config   Config
}

// NewResolver creates a resolver over r.
func NewResolver(r *registry.Registry, cfg Config) *Resolver {
	return &Resolver{registry: r, config: cfg}
}

// Resolve returns the route for handlerName. The states are checked in
// order: a named handler, the default handler override, the global
// registry. A named handler's capability lists are used as given, so an
// unset list exposes nothing; the default override falls back to the
// registry per list.
func (r *Resolver) Resolve(handlerName string) (Route, error) {
	if handlerName != "" {
		h, ok := r.registry.Handler(handlerName)
		if !ok {
			return Route{}, &HandlerNotFoundError{Name: handlerName}
		}
		return Route{
			Source:          SourceNamed,
			Handler:         handlerName,
			Name:            firstNonEmpty(h.Name, handlerName),
			Version:         firstNonEmpty(h.Version, r.config.Version),
			BrowserRedirect: firstNonEmpty(h.BrowserRedirect, r.config.BrowserRedirect),
			Middleware:      h.Middleware,
			Tools:           nonNil(h.Tools),
			Resources:       nonNil(h.Resources),
			Prompts:         nonNil(h.Prompts),
		}, nil
	}

	if def := r.registry.DefaultHandler(); def != nil {
		rt := Route{
			Source:          SourceDefault,
			Name:            firstNonEmpty(def.Name, r.config.Name, DefaultServerName),
			Version:         firstNonEmpty(def.Version, r.config.Version),
			BrowserRedirect: firstNonEmpty(def.BrowserRedirect, r.config.BrowserRedirect),
			Middleware:      def.Middleware,
			Tools:           def.Tools,
			Resources:       def.Resources,
			Prompts:         def.Prompts,
		}
		if rt.Tools == nil {
			rt.Tools = r.registry.Tools()
		}
		if rt.Resources == nil {
			rt.Resources = r.registry.Resources()
		}
		if rt.Prompts == nil {
			rt.Prompts = r.registry.Prompts()
		}
		return rt, nil
	}

	return Route{
		Source:          SourceGlobal,
		Name:            firstNonEmpty(r.config.Name, DefaultServerName),
		Version:         r.config.Version,
		BrowserRedirect: r.config.BrowserRedirect,
		Tools:           r.registry.Tools(),
		Resources:       r.registry.Resources(),
		Prompts:         r.registry.Prompts(),
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
