package locate

import (
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"missingkeys/internal/source"
)

// YAMLNode returns the span of the key token at path inside a parsed YAML
// tree. Positions come from the parser, so repeated names at one level are
// not ambiguous.
func YAMLNode(path []string, root *yaml.Node, text string) (source.Span, bool) {
	if len(path) == 0 || root == nil {
		return source.Span{}, false
	}
	node := resolveAlias(root)
	last := len(path) - 1
	for i, segment := range path {
		if node == nil || node.Kind != yaml.MappingNode {
			return source.Span{}, false
		}
		key, value := lookupYAML(node, segment)
		if key == nil {
			return source.Span{}, false
		}
		if i == last {
			return keySpan(key, text)
		}
		node = resolveAlias(value)
	}
	return source.Span{}, false
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for depth := 0; n != nil && n.Kind == yaml.AliasNode && depth < 64; depth++ {
		n = n.Alias
	}
	return n
}

func lookupYAML(m *yaml.Node, segment string) (key, value *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Tag == "!!merge" {
			continue
		}
		if m.Content[i].Value == segment {
			return m.Content[i], m.Content[i+1]
		}
	}
	return nil, nil
}

// keySpan converts the parser's 1-based line and rune column into byte offsets.
func keySpan(key *yaml.Node, text string) (source.Span, bool) {
	start, ok := offsetAt(text, key.Line, key.Column)
	if !ok {
		return source.Span{}, false
	}
	rest := text[start:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	var length int
	switch {
	case key.Style&(yaml.DoubleQuotedStyle|yaml.SingleQuotedStyle) != 0:
		length = quotedLen(rest)
	case strings.HasPrefix(rest, key.Value):
		length = len(key.Value)
	default:
		length = len(strings.TrimRight(strings.SplitN(rest, ":", 2)[0], " \t"))
	}
	if length <= 0 {
		return source.Span{}, false
	}
	return source.SpanOf(start, start+length), true
}

func offsetAt(text string, line, column int) (int, bool) {
	if line < 1 || column < 1 {
		return 0, false
	}
	off := 0
	for l := 1; l < line; l++ {
		nl := strings.IndexByte(text[off:], '\n')
		if nl < 0 {
			return 0, false
		}
		off += nl + 1
	}
	for c := 1; c < column; c++ {
		if off >= len(text) || text[off] == '\n' {
			return 0, false
		}
		_, size := utf8.DecodeRuneInString(text[off:])
		off += size
	}
	return off, true
}

// quotedLen measures a quoted scalar at the start of s, quotes included.
func quotedLen(s string) int {
	if s == "" {
		return 0
	}
	quote := s[0]
	for i := 1; i < len(s); i++ {
		switch {
		case quote == '"' && s[i] == '\\':
			i++
		case s[i] == quote:
			if quote == '\'' && i+1 < len(s) && s[i+1] == '\'' {
				i++
				continue
			}
			return i + 1
		}
	}
	return 0
}
