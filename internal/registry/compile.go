package registry

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/mcpkit/internal/cache"
	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/config"
	"github.com/giantswarm/mcpkit/internal/metrics"
	"github.com/giantswarm/mcpkit/internal/resolver"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// MiddlewareLookup reports whether a middleware name is known.
type MiddlewareLookup interface {
	Has(name string) bool
}

// Bindings supplies the Go side of definition files.
type Bindings struct {
	// Actions resolves "action:" references. Defaults to the built-ins.
	Actions *capability.ActionSet
	// Middleware resolves handler middleware references. When nil, any
	// middleware reference is an error.
	Middleware MiddlewareLookup
	// Cache enables response caching for tools with a cache policy.
	Cache *cache.Cache
}

var lineNumber = regexp.MustCompile(`line (\d+)`)

// compiler holds the state of one Compile call.
type compiler struct {
	bindings Bindings
	errs     *config.ConfigurationErrorCollection
}

// Compile loads every discovered file and builds the registry. All
// problems are collected and returned together as a
// *config.ConfigurationErrorCollection.
func Compile(d *Discovery, b Bindings) (*Registry, error) {
	if b.Actions == nil {
		b.Actions = capability.DefaultActions()
	}
	c := &compiler{bindings: b, errs: config.NewConfigurationErrorCollection()}
	r := &Registry{handlers: make(map[string]*HandlerOverride)}

	toolNames := make(map[string]string)
	for _, f := range d.Tools.Files {
		def, err := capability.LoadTool(source(f), b.Actions)
		if err != nil {
			c.addLoadError(f, err)
			continue
		}
		if !c.admit(f, def.Finalize, func() string { return def.Name }, toolNames) {
			continue
		}
		if def.Cache != nil && b.Cache != nil {
			def.Handler = cachedHandler(b.Cache, def)
		}
		r.tools = append(r.tools, def)
	}

	resourceNames := make(map[string]string)
	for _, f := range d.Resources.Files {
		def, err := capability.LoadResource(source(f), b.Actions)
		if err != nil {
			c.addLoadError(f, err)
			continue
		}
		if !c.admit(f, def.Finalize, func() string { return def.Name }, resourceNames) {
			continue
		}
		r.resources = append(r.resources, def)
	}

	promptNames := make(map[string]string)
	for _, f := range d.Prompts.Files {
		def, err := capability.LoadPrompt(source(f))
		if err != nil {
			c.addLoadError(f, err)
			continue
		}
		if !c.admit(f, def.Finalize, func() string { return def.Name }, promptNames) {
			continue
		}
		r.prompts = append(r.prompts, def)
	}

	// Handler names are explicit, so two files can claim the same name.
	// The file from the higher-precedence overlay keeps it.
	precedence := make(map[string]int, len(d.Overlays))
	for i, o := range d.Overlays {
		precedence[o.Root] = i
	}
	owners := make(map[string]resolver.DefinitionFile)

	routes := make(map[string]string)
	for _, f := range d.Handlers.Files {
		def, err := capability.LoadHandler(source(f))
		if err != nil {
			c.addLoadError(f, err)
			continue
		}
		if !def.IsNamed() {
			logging.Warn("Registry", "Ignoring anonymous handler file %s, handler overrides need a name", f.Path)
			continue
		}
		h, ok := c.handler(f, def, r)
		if !ok {
			continue
		}
		if prev, dup := r.handlers[h.Name]; dup {
			mine, theirs := precedence[f.Overlay.Root], precedence[owners[h.Name].Overlay.Root]
			if mine == theirs {
				c.add(f, capability.ErrorTypeValidation,
					fmt.Sprintf("handler name %s is already used by %s", h.Name, prev.Provenance.Path), nil)
				continue
			}
			if mine < theirs {
				logging.Warn("Registry", "Handler %s in %s is overridden by %s", h.Name, f.Path, prev.Provenance.Path)
				continue
			}
			logging.Warn("Registry", "Handler %s in %s replaces the one in %s", h.Name, f.Path, prev.Provenance.Path)
			if prev.Route != "" {
				delete(routes, prev.Route)
			}
		}
		if h.Route != "" {
			if other, taken := routes[h.Route]; taken && other != h.Name {
				c.add(f, capability.ErrorTypeValidation,
					fmt.Sprintf("route %s is already used by handler %s", h.Route, other), nil)
				continue
			}
			routes[h.Route] = h.Name
		}
		r.handlers[h.Name] = h
		owners[h.Name] = f
	}

	if d.Default != nil {
		def, err := capability.LoadHandler(source(*d.Default))
		if err != nil {
			c.addLoadError(*d.Default, err)
		} else if h, ok := c.handler(*d.Default, def, r); ok {
			r.defaultHandler = h
		}
	}

	if c.errs.HasErrors() {
		for _, kind := range []capability.Kind{capability.KindTool, capability.KindResource, capability.KindPrompt, capability.KindHandler} {
			if n := len(c.errs.GetErrorsByCategory(kind.String())); n > 0 {
				logging.Warn("Registry", "%d %s definitions failed to compile", n, kind.String())
			}
		}
		return nil, c.errs
	}

	r.stats = []KindStats{
		stats(d.Tools, len(r.tools)),
		stats(d.Resources, len(r.resources)),
		stats(d.Prompts, len(r.prompts)),
		stats(d.Handlers, len(r.handlers)),
	}
	for _, s := range r.stats {
		metrics.RegistryCapabilities.WithLabelValues(s.Kind.String()).Set(float64(s.Compiled))
		metrics.RegistryOverrides.WithLabelValues(s.Kind.String()).Set(float64(s.Overridden))
		logging.Info("Registry", "Loaded %d %s (%d overridden)", s.Compiled, s.Kind.Plural(), s.Overridden)
	}
	if r.defaultHandler != nil {
		logging.Info("Registry", "Using default handler from %s", r.defaultHandler.Provenance.Path)
	}

	return r, nil
}

func source(f resolver.DefinitionFile) capability.Source {
	return capability.Source{Path: f.Path, Overlay: f.Overlay.String(), Identifier: f.Identifier}
}

func stats(res resolver.Resolution, compiled int) KindStats {
	return KindStats{Kind: res.Kind, Candidates: res.Count, Compiled: compiled, Overridden: res.Overridden}
}

// admit derives the final name once and checks it is unique within its
// kind.
func (c *compiler) admit(f resolver.DefinitionFile, finalize func() error, name func() string, seen map[string]string) bool {
	if err := finalize(); err != nil {
		c.add(f, capability.ErrorTypeValidation, err.Error(), nil)
		return false
	}
	n := name()
	if prev, dup := seen[n]; dup {
		c.add(f, capability.ErrorTypeValidation, fmt.Sprintf("%s name %q is already defined by %s", f.Kind, n, prev),
			[]string{"Set an explicit name or rename one of the files"})
		return false
	}
	seen[n] = f.Path
	return true
}

// handler resolves the references of a handler definition.
func (c *compiler) handler(f resolver.DefinitionFile, def *capability.HandlerDefinition, r *Registry) (*HandlerOverride, bool) {
	h := &HandlerOverride{
		Name:            def.Name,
		Version:         def.Version,
		Route:           def.Route,
		BrowserRedirect: def.BrowserRedirect,
		Middleware:      def.Middleware,
		Provenance:      def.Provenance,
	}
	ok := true

	if def.Middleware != "" && (c.bindings.Middleware == nil || !c.bindings.Middleware.Has(def.Middleware)) {
		c.add(f, capability.ErrorTypeReference, fmt.Sprintf("unknown middleware %q", def.Middleware), nil)
		ok = false
	}

	if def.Tools != nil {
		h.Tools = make([]*capability.ToolDefinition, 0, len(*def.Tools))
		for _, ref := range *def.Tools {
			t := findTool(r.tools, ref)
			if t == nil {
				c.add(f, capability.ErrorTypeReference, fmt.Sprintf("unknown tool %q", ref), nil)
				ok = false
				continue
			}
			h.Tools = append(h.Tools, t)
		}
	}
	if def.Resources != nil {
		h.Resources = make([]*capability.ResourceDefinition, 0, len(*def.Resources))
		for _, ref := range *def.Resources {
			res := findResource(r.resources, ref)
			if res == nil {
				c.add(f, capability.ErrorTypeReference, fmt.Sprintf("unknown resource %q", ref), nil)
				ok = false
				continue
			}
			h.Resources = append(h.Resources, res)
		}
	}
	if def.Prompts != nil {
		h.Prompts = make([]*capability.PromptDefinition, 0, len(*def.Prompts))
		for _, ref := range *def.Prompts {
			p := findPrompt(r.prompts, ref)
			if p == nil {
				c.add(f, capability.ErrorTypeReference, fmt.Sprintf("unknown prompt %q", ref), nil)
				ok = false
				continue
			}
			h.Prompts = append(h.Prompts, p)
		}
	}

	return h, ok
}

func findTool(tools []*capability.ToolDefinition, ref string) *capability.ToolDefinition {
	for _, t := range tools {
		if t.Name == ref || t.Provenance.Identifier == ref {
			return t
		}
	}
	return nil
}

func findResource(resources []*capability.ResourceDefinition, ref string) *capability.ResourceDefinition {
	for _, r := range resources {
		if r.Name == ref || r.Provenance.Identifier == ref || r.URI == ref {
			return r
		}
	}
	return nil
}

func findPrompt(prompts []*capability.PromptDefinition, ref string) *capability.PromptDefinition {
	for _, p := range prompts {
		if p.Name == ref || p.Provenance.Identifier == ref {
			return p
		}
	}
	return nil
}

// cachedHandler wraps the tool's handler with the response cache.
func cachedHandler(c *cache.Cache, def *capability.ToolDefinition) capability.ToolFunc {
	policy := cache.Policy{
		MaxAge:               def.Cache.MaxAge,
		StaleWhileRevalidate: def.Cache.StaleWhileRevalidate,
		Group:                cache.ToolGroup(def.Name),
	}
	if def.Cache.Key != "" {
		// Parse errors were rejected by the loader.
		tmpl, _ := capability.ParseTemplate(def.Provenance.Path+"#cache.key", def.Cache.Key)
		policy.Key = func(ctx context.Context, args map[string]interface{}) (string, error) {
			key, err := tmpl.Render(ctx, args)
			if err != nil {
				return "", err
			}
			return strings.TrimSpace(key), nil
		}
	}

	codec := capability.ResultCodec{NotCacheable: cache.ErrSkip}
	wrapped := cache.Wrap(c, policy, cache.Codec[*mcp.CallToolResult](codec), cache.Func[*mcp.CallToolResult](def.Handler))
	return capability.ToolFunc(wrapped)
}

// addLoadError records a loader failure.
func (c *compiler) addLoadError(f resolver.DefinitionFile, err error) {
	var loadErr *capability.LoadError
	if errors.As(err, &loadErr) {
		c.add(f, loadErr.Type, loadErr.Err.Error(), suggestions(loadErr.Type))
		return
	}
	c.add(f, capability.ErrorTypeIO, err.Error(), nil)
}

func (c *compiler) add(f resolver.DefinitionFile, errorType, message string, hints []string) {
	ce := config.NewConfigurationErrorWithDetails(f.Path, filepath.Base(f.Path), f.Overlay.String(),
		f.Kind.String(), errorType, message, "", hints)
	if m := lineNumber.FindStringSubmatch(message); m != nil {
		ce.LineNumber, _ = strconv.Atoi(m[1])
	}
	logging.Error("Registry", ce, "Cannot admit %s %s", f.Kind, f.Path)
	c.errs.Add(ce)
}

func suggestions(errorType string) []string {
	switch errorType {
	case capability.ErrorTypeParse:
		return []string{"Check the YAML or JSON syntax", "Remove fields that are not part of the definition"}
	case capability.ErrorTypeReference:
		return []string{"Check the spelling of the referenced action, capability or middleware"}
	case capability.ErrorTypeValidation:
		return []string{"Bind exactly one invocation (action, template, text, file or messages)"}
	}
	return nil
}
