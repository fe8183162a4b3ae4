// Package resolver merges definition files from several overlays into one
// table per capability kind, keyed by derived identifier. Later overlays
// replace earlier ones without deleting anything from them.
package resolver
