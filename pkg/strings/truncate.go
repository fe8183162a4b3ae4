// Package strings holds text helpers shared by the CLI output.
package strings

import (
	"strings"
)

// DetailMaxLen is the width of the detail column in listings.
const DetailMaxLen = 60

// ValueMaxLen is the width of value cells in key/value tables.
const ValueMaxLen = 100

// minLen leaves room for one rune plus the ellipsis.
const minLen = 4

// SingleLine collapses every run of whitespace, newlines included, into a
// single space.
func SingleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate returns s on a single line, cut to at most maxLen runes with a
// trailing "..." when shortened. maxLen below 4 is raised to 4.
func Truncate(s string, maxLen int) string {
	if maxLen < minLen {
		maxLen = minLen
	}

	s = SingleLine(s)
	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
