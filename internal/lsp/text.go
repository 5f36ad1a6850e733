package lsp

import (
	"strings"
	"unicode/utf16"
)

// applyChanges replays content changes in order. A change without a range
// replaces the whole buffer.
func applyChanges(text string, changes []textDocumentContentChangeEvent) string {
	for _, c := range changes {
		if c.Range == nil {
			text = c.Text
			continue
		}
		start := offsetForPosition(text, c.Range.Start)
		end := max(offsetForPosition(text, c.Range.End), start)
		text = text[:start] + c.Text + text[end:]
	}
	return text
}

// offsetForPosition maps a position with UTF-16 columns to a byte offset.
// Columns past the line end clamp to the newline; lines past the end clamp
// to len(text).
func offsetForPosition(text string, pos position) int {
	if pos.Line < 0 || pos.Character < 0 {
		return 0
	}
	start := 0
	for range pos.Line {
		nl := strings.IndexByte(text[start:], '\n')
		if nl < 0 {
			return len(text)
		}
		start += nl + 1
	}
	units := 0
	for i, r := range text[start:] {
		n := max(utf16.RuneLen(r), 1)
		if r == '\n' || units+n > pos.Character {
			return start + i
		}
		units += n
	}
	return len(text)
}
