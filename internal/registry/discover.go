package registry

import (
	"fmt"

	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/overlay"
	"github.com/giantswarm/mcpkit/internal/resolver"
)

// Options controls discovery.
type Options struct {
	// Overlays from lowest to highest precedence.
	Overlays []overlay.Overlay
	// Dir is the definition directory inside each overlay.
	Dir string
	// Exclude holds patterns relative to Dir applied to every kind.
	Exclude []string
	// Filter, when set, must accept a path for it to be discovered.
	Filter func(path string) bool
}

// Discovery is the resolved set of definition files. It is computed from
// the file system only and does not read file contents.
type Discovery struct {
	Dir       string                   `yaml:"dir" json:"dir"`
	Overlays  []overlay.Overlay        `yaml:"overlays" json:"overlays"`
	Tools     resolver.Resolution      `yaml:"tools" json:"tools"`
	Resources resolver.Resolution      `yaml:"resources" json:"resources"`
	Prompts   resolver.Resolution      `yaml:"prompts" json:"prompts"`
	Handlers  resolver.Resolution      `yaml:"handlers" json:"handlers"`
	Default   *resolver.DefinitionFile `yaml:"default,omitempty" json:"default,omitempty"`
}

// Resolution returns the resolution of kind.
func (d *Discovery) Resolution(kind capability.Kind) resolver.Resolution {
	switch kind {
	case capability.KindTool:
		return d.Tools
	case capability.KindResource:
		return d.Resources
	case capability.KindPrompt:
		return d.Prompts
	default:
		return d.Handlers
	}
}

// Files returns every discovered file, the sentinel included.
func (d *Discovery) Files() []resolver.DefinitionFile {
	var files []resolver.DefinitionFile
	for _, kind := range []capability.Kind{capability.KindTool, capability.KindResource, capability.KindPrompt, capability.KindHandler} {
		files = append(files, d.Resolution(kind).Files...)
	}
	if d.Default != nil {
		files = append(files, *d.Default)
	}
	return files
}

// Discover scans the overlays and resolves overrides for every kind. It
// has no side effects beyond reading directories.
func Discover(opts Options) (*Discovery, error) {
	scanner := overlay.NewScanner(opts.Dir)
	d := &Discovery{Dir: opts.Dir, Overlays: opts.Overlays}
	if d.Dir == "" {
		d.Dir = overlay.DefaultDir
	}

	for _, kind := range capability.Kinds {
		files, err := scanner.ScanAll(opts.Overlays, []string{kind.Subpath()}, overlay.ScanOptions{
			Exclude: opts.Exclude,
			Filter:  opts.Filter,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", kind.Plural(), err)
		}
		res, err := resolver.Resolve(kind, files)
		if err != nil {
			return nil, err
		}
		switch kind {
		case capability.KindTool:
			d.Tools = res
		case capability.KindResource:
			d.Resources = res
		case capability.KindPrompt:
			d.Prompts = res
		}
	}

	handlerExclude := append([]string{}, opts.Exclude...)
	for _, kind := range capability.Kinds {
		handlerExclude = append(handlerExclude, kind.Subpath()+"/**")
	}
	handlerFiles, err := scanner.ScanAll(opts.Overlays, []string{capability.KindHandler.Subpath()}, overlay.ScanOptions{
		Exclude: handlerExclude,
		Filter: func(path string) bool {
			if overlay.IsIndexFile(path) {
				return false
			}
			return opts.Filter == nil || opts.Filter(path)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan handlers: %w", err)
	}
	if d.Handlers, err = resolver.Resolve(capability.KindHandler, handlerFiles); err != nil {
		return nil, err
	}

	path, o, found, err := scanner.FindSentinel(opts.Overlays, []string{"."})
	if err != nil {
		return nil, fmt.Errorf("failed to look up default handler: %w", err)
	}
	if found {
		d.Default = &resolver.DefinitionFile{
			Path:       path,
			Identifier: overlay.IndexName,
			Kind:       capability.KindHandler,
			Overlay:    o,
		}
	}

	return d, nil
}
