package identifier

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Extensions lists the file extensions recognised as definition files,
// in lookup order.
var Extensions = []string{".yaml", ".yml", ".json"}

// ErrEmptyName is returned when a file name yields no usable identifier.
var ErrEmptyName = errors.New("cannot derive a name from an empty file name")

var nonWord = regexp.MustCompile(`\W`)

// reserved holds the Go keywords. A derived identifier equal to one of
// these is prefixed with an underscore. Predeclared identifiers such as
// string or len are legal identifiers and are not listed.
var reserved = map[string]struct{}{
	"break":       {},
	"case":        {},
	"chan":        {},
	"const":       {},
	"continue":    {},
	"default":     {},
	"defer":       {},
	"else":        {},
	"fallthrough": {},
	"for":         {},
	"func":        {},
	"go":          {},
	"goto":        {},
	"if":          {},
	"import":      {},
	"interface":   {},
	"map":         {},
	"package":     {},
	"range":       {},
	"return":      {},
	"select":      {},
	"struct":      {},
	"switch":      {},
	"type":        {},
	"var":         {},
}

// smallWords stay lower case inside titles unless they open the title.
var smallWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "as": {}, "at": {}, "but": {}, "by": {},
	"for": {}, "if": {}, "in": {}, "is": {}, "nor": {}, "of": {}, "on": {},
	"or": {}, "the": {}, "to": {}, "with": {},
}

// IsReserved reports whether id collides with a Go keyword.
func IsReserved(id string) bool {
	_, ok := reserved[id]
	return ok
}

// HasDefinitionExtension reports whether filename ends in one of Extensions.
func HasDefinitionExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// StripExtension returns the base name of path without a definition
// extension. Other extensions are kept.
func StripExtension(path string) string {
	base := filepath.Base(path)
	if HasDefinitionExtension(base) {
		return strings.TrimSuffix(base, filepath.Ext(base))
	}
	return base
}

// Derive turns a definition file name into a bare Go identifier.
//
// Every non-word character becomes an underscore; keywords and names
// starting with a digit get a leading underscore.
func Derive(filename string) (string, error) {
	base := StripExtension(filename)
	if base == "" || base == "." {
		return "", fmt.Errorf("%w: %q", ErrEmptyName, filename)
	}

	id := nonWord.ReplaceAllString(base, "_")
	if IsReserved(id) || unicode.IsDigit(rune(id[0])) {
		return "_" + id, nil
	}
	return id, nil
}

// Name derives the kebab-case capability name for a base name,
// e.g. "listDocumentation" and "list_documentation" both become
// "list-documentation".
func Name(base string) string {
	words := splitWords(base)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return strings.Join(words, "-")
}

// Title derives a human-readable title, e.g. "project-readme" becomes
// "Project Readme".
func Title(base string) string {
	words := splitWords(base)
	caser := cases.Title(language.English, cases.NoLower)
	for i, w := range words {
		if _, small := smallWords[strings.ToLower(w)]; small && i > 0 {
			words[i] = strings.ToLower(w)
			continue
		}
		words[i] = caser.String(w)
	}
	return strings.Join(words, " ")
}

// splitWords splits on separators and on case transitions. A run of
// upper case letters followed by a lower case letter keeps its last
// letter for the next word ("XMLParser" -> "XML", "Parser").
func splitWords(s string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		if r == '-' || r == '_' || r == '.' || r == '/' || unicode.IsSpace(r) {
			flush()
			continue
		}
		if i > 0 && len(cur) > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				flush()
			}
		}
		cur = append(cur, r)
	}
	flush()
	return words
}
