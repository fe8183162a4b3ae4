// Package watch reports edits to definition directories.
//
// A Watcher adds fsnotify watches for every directory below its roots and
// batches events for definition files (.yaml, .yml, .json) into one Change
// per debounce window. The generate command uses it to rewrite the
// manifest while definitions are being edited.
package watch
