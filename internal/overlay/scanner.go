package overlay

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/giantswarm/mcpkit/internal/identifier"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// DefaultDir is the directory, relative to each overlay root, that holds
// definition files.
const DefaultDir = "mcp"

// IndexName is the base name of the sentinel default handler file.
const IndexName = "index"

// Overlay is one root location contributing definition files. Overlays are
// immutable once configured.
type Overlay struct {
	// Name is used in logs and provenance. Defaults to the root's base name.
	Name string `yaml:"name,omitempty" json:"name,omitempty"`
	// Root is the absolute directory of the overlay.
	Root string `yaml:"root" json:"root"`
}

// New creates an overlay for root, resolving it to an absolute path.
func New(root string) (Overlay, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Overlay{}, fmt.Errorf("failed to resolve overlay root %s: %w", root, err)
	}
	return Overlay{Name: filepath.Base(abs), Root: abs}, nil
}

// String implements fmt.Stringer.
func (o Overlay) String() string {
	if o.Name != "" {
		return o.Name
	}
	return o.Root
}

// Files is the scan result of one overlay.
type Files struct {
	Overlay Overlay
	Paths   []string
}

// ScanOptions narrows a scan.
type ScanOptions struct {
	// Exclude holds patterns relative to the definition directory. A
	// pattern ending in "/**" excludes the whole subtree, other patterns
	// use filepath.Match syntax.
	Exclude []string
	// Filter, when set, must return true for a path to be kept.
	Filter func(path string) bool
}

// Scanner lists definition files per overlay. It never reads file
// contents.
type Scanner struct {
	dir string
}

// NewScanner creates a scanner looking below <overlay>/<dir>.
func NewScanner(dir string) *Scanner {
	if dir == "" {
		dir = DefaultDir
	}
	return &Scanner{dir: dir}
}

// DefinitionRoot returns the directory scanned inside o.
func (s *Scanner) DefinitionRoot(o Overlay) string {
	return filepath.Join(o.Root, s.dir)
}

// Scan returns the candidate definition files of one overlay for the given
// sub-paths. Each sub-path is listed one level deep. Missing directories
// yield no files; unreadable ones are an error.
func (s *Scanner) Scan(o Overlay, subpaths []string, opts ScanOptions) ([]string, error) {
	root := s.DefinitionRoot(o)
	seen := make(map[string]struct{})
	var paths []string

	for _, sub := range subpaths {
		dir := filepath.Join(root, sub)
		rel, _ := filepath.Rel(root, dir)
		if rel != "." && excluded(filepath.ToSlash(rel)+"/", opts.Exclude) {
			logging.Debug("Scanner", "Skipping excluded sub-path %s in overlay %s", sub, o)
			continue
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to read %s in overlay %s: %w", dir, o, err)
		}

		for _, entry := range entries {
			if entry.IsDir() || !identifier.HasDefinitionExtension(entry.Name()) {
				continue
			}
			path := filepath.Join(dir, entry.Name())
			relPath, _ := filepath.Rel(root, path)
			if excluded(filepath.ToSlash(relPath), opts.Exclude) {
				continue
			}
			if opts.Filter != nil && !opts.Filter(path) {
				continue
			}
			if _, dup := seen[path]; dup {
				continue
			}
			seen[path] = struct{}{}
			paths = append(paths, path)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// ScanAll scans every overlay in the given order.
func (s *Scanner) ScanAll(overlays []Overlay, subpaths []string, opts ScanOptions) ([]Files, error) {
	result := make([]Files, 0, len(overlays))
	for _, o := range overlays {
		paths, err := s.Scan(o, subpaths, opts)
		if err != nil {
			return nil, err
		}
		result = append(result, Files{Overlay: o, Paths: paths})
	}
	return result, nil
}

// FindSentinel looks for the sentinel index file. overlays are given
// lowest to highest precedence; the search runs in layer order (highest
// precedence first) and the first overlay holding an index file wins.
func (s *Scanner) FindSentinel(overlays []Overlay, subpaths []string) (string, Overlay, bool, error) {
	for i := len(overlays) - 1; i >= 0; i-- {
		o := overlays[i]
		root := s.DefinitionRoot(o)
		for _, sub := range subpaths {
			for _, ext := range identifier.Extensions {
				candidate := filepath.Join(root, sub, IndexName+ext)
				info, err := os.Stat(candidate)
				if err != nil {
					if errors.Is(err, fs.ErrNotExist) {
						continue
					}
					return "", Overlay{}, false, fmt.Errorf("failed to stat %s: %w", candidate, err)
				}
				if info.Mode().IsRegular() {
					return candidate, o, true, nil
				}
			}
		}
	}
	return "", Overlay{}, false, nil
}

// IsIndexFile reports whether path names a sentinel index file.
func IsIndexFile(path string) bool {
	base := filepath.Base(path)
	return identifier.HasDefinitionExtension(base) && identifier.StripExtension(base) == IndexName
}

// excluded matches a slash-separated relative path against patterns.
func excluded(rel string, patterns []string) bool {
	for _, p := range patterns {
		p = filepath.ToSlash(p)
		if prefix, ok := strings.CutSuffix(p, "/**"); ok {
			if rel == prefix || strings.HasPrefix(rel, prefix+"/") {
				return true
			}
			continue
		}
		if ok, _ := filepath.Match(p, strings.TrimSuffix(rel, "/")); ok {
			return true
		}
	}
	return false
}
