// Package identifier derives identifiers, names and titles from definition
// file names.
package identifier
