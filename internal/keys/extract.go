package keys

import "strings"

// ExtractSpecial collects, in order of appearance, the remainder of every line
// containing "<specialKey>: ". The text is not parsed as YAML; indentation and
// nesting are ignored. Empty values are dropped.
func ExtractSpecial(text, specialKey string) []string {
	if specialKey == "" {
		return nil
	}
	marker := specialKey + ": "
	var out []string
	for len(text) > 0 {
		line := text
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			line, text = text[:nl], text[nl+1:]
		} else {
			text = ""
		}
		idx := strings.Index(line, marker)
		if idx < 0 {
			continue
		}
		value := strings.TrimRight(line[idx+len(marker):], " \t\r")
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}
