package resolver

import (
	"fmt"

	"github.com/giantswarm/mcpkit/internal/capability"
	"github.com/giantswarm/mcpkit/internal/identifier"
	"github.com/giantswarm/mcpkit/internal/overlay"
)

// DefinitionFile is one resolved definition file.
type DefinitionFile struct {
	Path       string          `yaml:"path" json:"path"`
	Identifier string          `yaml:"identifier" json:"identifier"`
	Kind       capability.Kind `yaml:"kind" json:"kind"`
	Overlay    overlay.Overlay `yaml:"overlay" json:"overlay"`
}

// Override records one replaced definition.
type Override struct {
	Identifier string `yaml:"identifier" json:"identifier"`
	Replaced   string `yaml:"replaced" json:"replaced"`
	Winner     string `yaml:"winner" json:"winner"`
}

// Resolution is the merged view of one kind across all overlays.
type Resolution struct {
	Kind capability.Kind `yaml:"kind" json:"kind"`
	// Files holds one entry per identifier. An identifier keeps the
	// position it was first seen at while its value is replaced by later
	// overlays.
	Files []DefinitionFile `yaml:"files" json:"files"`
	// Count is the number of candidate files before merging.
	Count int `yaml:"count" json:"count"`
	// Overridden is Count minus the number of unique identifiers.
	Overridden int        `yaml:"overridden" json:"overridden"`
	Overrides  []Override `yaml:"overrides,omitempty" json:"overrides,omitempty"`
}

// Resolve merges per-overlay file lists given from lowest to highest
// precedence. The last overlay defining an identifier wins.
func Resolve(kind capability.Kind, perOverlay []overlay.Files) (Resolution, error) {
	res := Resolution{Kind: kind}
	index := make(map[string]int)

	for _, files := range perOverlay {
		for _, path := range files.Paths {
			id, err := identifier.Derive(path)
			if err != nil {
				return Resolution{}, fmt.Errorf("failed to derive %s identifier for %s: %w", kind, path, err)
			}
			res.Count++

			file := DefinitionFile{Path: path, Identifier: id, Kind: kind, Overlay: files.Overlay}
			if i, ok := index[id]; ok {
				res.Overridden++
				res.Overrides = append(res.Overrides, Override{
					Identifier: id,
					Replaced:   res.Files[i].Path,
					Winner:     path,
				})
				res.Files[i] = file
				continue
			}
			index[id] = len(res.Files)
			res.Files = append(res.Files, file)
		}
	}

	return res, nil
}

// Lookup returns the resolved file for id.
func (r Resolution) Lookup(id string) (DefinitionFile, bool) {
	for _, f := range r.Files {
		if f.Identifier == id {
			return f, true
		}
	}
	return DefinitionFile{}, false
}
