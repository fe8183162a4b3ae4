package capability

import (
	"fmt"
	"strings"
)

// Kind tags a definition file with the loader that admits it.
type Kind int

const (
	KindTool Kind = iota
	KindResource
	KindPrompt
	// KindHandler designates routing overrides. Handler files live directly
	// in the definition directory.
	KindHandler
)

// Kinds lists the capability kinds in registration order.
var Kinds = []Kind{KindTool, KindResource, KindPrompt}

func (k Kind) String() string {
	switch k {
	case KindTool:
		return "tool"
	case KindResource:
		return "resource"
	case KindPrompt:
		return "prompt"
	case KindHandler:
		return "handler"
	default:
		return "unknown"
	}
}

// Plural returns the collection name of the kind, e.g. "tools".
func (k Kind) Plural() string {
	return k.String() + "s"
}

// Subpath returns the directory below the definition root holding files
// of this kind. Handlers use the root itself.
func (k Kind) Subpath() string {
	if k == KindHandler {
		return "."
	}
	return k.Plural()
}

// ParseKind parses a kind name, singular or plural.
func ParseKind(s string) (Kind, error) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "s") {
	case "tool":
		return KindTool, nil
	case "resource":
		return KindResource, nil
	case "prompt":
		return KindPrompt, nil
	case "handler":
		return KindHandler, nil
	}
	return 0, fmt.Errorf("unknown capability kind %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
