package locate

import (
	"strings"

	"missingkeys/internal/source"
)

// Special finds the first "<specialKey>: <value>" in text and returns the span of value.
func Special(specialKey, value, text string) (source.Span, bool) {
	if specialKey == "" || value == "" {
		return source.Span{}, false
	}
	prefix := specialKey + ": "
	idx := strings.Index(text, prefix+value)
	if idx < 0 {
		return source.Span{}, false
	}
	start := idx + len(prefix)
	return source.SpanOf(start, start+len(value)), true
}
