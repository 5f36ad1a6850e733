package locate

import (
	"strings"

	"missingkeys/internal/source"
)

// JSON returns the span of the final segment's key token (quotes included).
func JSON(policy Policy, path []string, text string) (source.Span, bool) {
	if len(path) == 0 {
		return source.Span{}, false
	}
	switch policy {
	case PolicyLegacy:
		return legacyMatch(path, text)
	case PolicyScoped:
		return scopedMatch(path, text)
	default:
		return firstMatch(path, text)
	}
}

func keyToken(segment string) string {
	return `"` + segment + `"`
}

// indexKeyToken returns the first string token in text that spells segment.
// The literal token is searched first. Escaped spellings such as "caf\u00e9"
// are decoded only when the literal form does not occur.
func indexKeyToken(text, segment string) (start, end int, ok bool) {
	tok := keyToken(segment)
	if i := strings.Index(text, tok); i >= 0 {
		return i, i + len(tok), true
	}
	if !strings.Contains(text, `\`) {
		return 0, 0, false
	}
	for pos := 0; pos < len(text); {
		q := strings.IndexByte(text[pos:], '"')
		if q < 0 {
			break
		}
		s := scanner{text: text, pos: pos + q}
		val, valid := s.readString()
		if !valid {
			break
		}
		if val == segment {
			return pos + q, s.pos, true
		}
		pos = s.pos
	}
	return 0, 0, false
}

func firstMatch(path []string, text string) (source.Span, bool) {
	cursor := 0
	last := len(path) - 1
	for i, segment := range path {
		rel, relEnd, found := indexKeyToken(text[cursor:], segment)
		if !found {
			return source.Span{}, false
		}
		start, end := cursor+rel, cursor+relEnd
		if i == last {
			return source.SpanOf(start, end), true
		}
		brace := strings.IndexByte(text[end:], '{')
		if brace < 0 {
			return source.Span{}, false
		}
		cursor = end + brace + 1
	}
	return source.Span{}, false
}

func legacyMatch(path []string, text string) (source.Span, bool) {
	start, end, found := indexKeyToken(text, path[len(path)-1])
	if !found {
		return source.Span{}, false
	}
	return source.SpanOf(start, end), true
}

func scopedMatch(path []string, text string) (source.Span, bool) {
	s := scanner{text: text}
	s.skipSpace()
	if s.peek() != '{' {
		return source.Span{}, false
	}
	last := len(path) - 1
	for i, segment := range path {
		span, descend, ok := s.findKey(segment, i == last)
		if !ok {
			return source.Span{}, false
		}
		if !descend {
			return span, true
		}
	}
	return source.Span{}, false
}
