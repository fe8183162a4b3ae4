// Package formatting renders command output as tables, JSON or YAML.
//
// Commands build a Listing and hand it to the Formatter created for the
// requested output format.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// Formats lists the supported output formats.
var Formats = []OutputFormat{FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a --output value.
func ParseFormat(s string) (OutputFormat, error) {
	for _, f := range Formats {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	names := make([]string, len(Formats))
	for i, f := range Formats {
		names[i] = string(f)
	}
	return "", fmt.Errorf("unknown output format %q, expected one of: %s", s, strings.Join(names, ", "))
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Quiet  bool      // Suppress decorative elements
	Output io.Writer // Defaults to os.Stdout
}

func (o Options) writer() io.Writer {
	if o.Output == nil {
		return os.Stdout
	}
	return o.Output
}

// Item is one compiled definition.
type Item struct {
	Kind        string `json:"kind" yaml:"kind"`
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// Detail is the kind specific locator: a resource URI or template, or
	// a handler route.
	Detail  string `json:"detail,omitempty" yaml:"detail,omitempty"`
	Overlay string `json:"overlay" yaml:"overlay"`
	Path    string `json:"path" yaml:"path"`
}

// Count summarises one kind.
type Count struct {
	Kind       string `json:"kind" yaml:"kind"`
	Candidates int    `json:"candidates" yaml:"candidates"`
	Compiled   int    `json:"compiled" yaml:"compiled"`
	Overridden int    `json:"overridden" yaml:"overridden"`
}

// Listing is the output of the list command.
type Listing struct {
	Items   []Item  `json:"items" yaml:"items"`
	Summary []Count `json:"summary" yaml:"summary"`
}

// Formatter renders command output.
type Formatter interface {
	FormatListing(l Listing) error

	// Generic data formatting
	FormatData(data interface{}) error

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// Factory creates formatters for different output formats
type Factory interface {
	CreateFormatter(options Options) Formatter
}

// NewFactory creates a new formatter factory
func NewFactory() Factory {
	return &factory{}
}

// factory implements the Factory interface
type factory struct{}

// CreateFormatter creates the appropriate formatter based on options
func (f *factory) CreateFormatter(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}
