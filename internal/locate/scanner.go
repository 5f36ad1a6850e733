package locate

import (
	"encoding/json"

	"missingkeys/internal/source"
)

// scanner walks JSON text keeping byte offsets. It assumes well-formed input
// and gives up (ok == false) on anything it does not recognise.
type scanner struct {
	text string
	pos  int
}

func (s *scanner) peek() byte {
	if s.pos >= len(s.text) {
		return 0
	}
	return s.text[s.pos]
}

func (s *scanner) skipSpace() {
	for s.pos < len(s.text) {
		switch s.text[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

// findKey expects the scanner on an object's "{". It scans that object's
// entries for segment. For the final segment it returns the key span. For a
// parent it leaves the scanner on the "{" of the first object-valued match
// and reports descend == true.
func (s *scanner) findKey(segment string, final bool) (span source.Span, descend, ok bool) {
	if s.peek() != '{' {
		return source.Span{}, false, false
	}
	s.pos++
	for {
		s.skipSpace()
		if s.peek() != '"' {
			return source.Span{}, false, false
		}
		keyStart := s.pos
		key, valid := s.readString()
		if !valid {
			return source.Span{}, false, false
		}
		keyEnd := s.pos
		s.skipSpace()
		if s.peek() != ':' {
			return source.Span{}, false, false
		}
		s.pos++
		s.skipSpace()
		if key == segment {
			if final {
				return source.SpanOf(keyStart, keyEnd), false, true
			}
			if s.peek() == '{' {
				return source.Span{}, true, true
			}
		}
		if !s.skipValue() {
			return source.Span{}, false, false
		}
		s.skipSpace()
		switch s.peek() {
		case ',':
			s.pos++
		default:
			return source.Span{}, false, false
		}
	}
}

// readString consumes a string token and returns its decoded value.
func (s *scanner) readString() (string, bool) {
	start := s.pos
	s.pos++
	escaped := false
	for s.pos < len(s.text) {
		c := s.text[s.pos]
		s.pos++
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			var out string
			if err := json.Unmarshal([]byte(s.text[start:s.pos]), &out); err != nil {
				return "", false
			}
			return out, true
		}
	}
	return "", false
}

func (s *scanner) skipValue() bool {
	switch s.peek() {
	case '"':
		_, ok := s.readString()
		return ok
	case '{', '[':
		return s.skipComposite()
	case 0:
		return false
	}
	for s.pos < len(s.text) {
		switch s.text[s.pos] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			return true
		}
		s.pos++
	}
	return true
}

// skipComposite consumes a balanced object or array, honouring strings.
func (s *scanner) skipComposite() bool {
	depth := 0
	for s.pos < len(s.text) {
		switch s.text[s.pos] {
		case '"':
			if _, ok := s.readString(); !ok {
				return false
			}
			continue
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				s.pos++
				return true
			}
		}
		s.pos++
	}
	return false
}
