// Package keys turns documents into flattened key sequences and compares them.
package keys

import (
	"strings"

	"missingkeys/internal/document"
)

// Separator joins the segments of a key path.
const Separator = "."

// Flatten walks v depth first, pre-order, and returns every key path.
// A mapping entry is emitted before its children; arrays and scalars are leaves.
func Flatten(v document.Value) []string {
	if !v.IsMapping() {
		return nil
	}
	var out []string
	var walk func(m document.Value, parent string)
	walk = func(m document.Value, parent string) {
		for _, e := range m.Entries {
			current := e.Key
			if parent != "" {
				current = parent + Separator + e.Key
			}
			out = append(out, current)
			if e.Value.IsMapping() {
				walk(e.Value, current)
			}
		}
	}
	walk(v, "")
	return out
}

// Split breaks a dotted key path into segments.
func Split(path string) []string {
	return strings.Split(path, Separator)
}
