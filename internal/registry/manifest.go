package registry

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"

	"github.com/giantswarm/mcpkit/pkg/logging"
)

// ManifestVersion is the format version written by WriteManifest.
const ManifestVersion = 1

// ErrStaleManifest is returned when a definition file changed after the
// manifest was generated.
var ErrStaleManifest = errors.New("manifest is stale")

// Manifest is the generated form of a Discovery. It lets serve skip the
// directory scan while still detecting edits to the files it lists.
type Manifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt time.Time         `yaml:"generatedAt"`
	Discovery   Discovery         `yaml:"discovery"`
	Digests     map[string]string `yaml:"digests"`
}

// NewManifest digests every file of d.
func NewManifest(d *Discovery) (*Manifest, error) {
	m := &Manifest{
		Version:     ManifestVersion,
		GeneratedAt: time.Now().UTC(),
		Discovery:   *d,
		Digests:     make(map[string]string),
	}
	for _, f := range d.Files() {
		sum, err := digest(f.Path)
		if err != nil {
			return nil, err
		}
		m.Digests[f.Path] = sum
	}
	return m, nil
}

// WriteManifest generates a manifest for d and writes it to path
// atomically.
func WriteManifest(path string, d *Discovery) (*Manifest, error) {
	m, err := NewManifest(d)
	if err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create manifest: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("failed to replace manifest: %w", err)
	}

	logging.Info("Registry", "Wrote manifest %s (%d files)", path, len(m.Digests))
	return m, nil
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d in %s", m.Version, path)
	}
	return &m, nil
}

// DiscoveryFromManifest returns the recorded Discovery after checking that
// every listed file still has its recorded digest.
func DiscoveryFromManifest(m *Manifest) (*Discovery, error) {
	files := m.Discovery.Files()
	if len(files) != len(m.Digests) {
		return nil, fmt.Errorf("%w: lists %d files but has %d digests", ErrStaleManifest, len(files), len(m.Digests))
	}
	for _, f := range files {
		want, ok := m.Digests[f.Path]
		if !ok {
			return nil, fmt.Errorf("%w: no digest for %s", ErrStaleManifest, f.Path)
		}
		got, err := digest(f.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStaleManifest, err)
		}
		if got != want {
			return nil, fmt.Errorf("%w: %s changed", ErrStaleManifest, f.Path)
		}
	}
	d := m.Discovery
	return &d, nil
}

func digest(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
