package lsp

import (
	"unicode/utf16"
	"unicode/utf8"

	"fortio.org/safecast"

	"missingkeys/internal/source"
)

// lspPosition maps a byte offset to a zero-based line and a UTF-16 column.
// Offsets past the end clamp to the end of the content.
func lspPosition(file *source.File, offset uint32) position {
	size, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		size = ^uint32(0)
	}
	offset = min(offset, size)
	lc, _ := file.Resolve(source.Span{Start: offset, End: offset})
	lineStart, ok := file.LineStart(lc.Line)
	if !ok || lineStart > offset {
		lineStart = offset
	}
	units := 0
	for rest := file.Content[lineStart:offset]; len(rest) > 0; {
		r, n := utf8.DecodeRune(rest)
		units += max(utf16.RuneLen(r), 1)
		rest = rest[n:]
	}
	return position{Line: int(lc.Line) - 1, Character: units}
}

func rangeForSpan(file *source.File, span source.Span) lspRange {
	if file == nil {
		return lspRange{}
	}
	return lspRange{
		Start: lspPosition(file, span.Start),
		End:   lspPosition(file, span.End),
	}
}
