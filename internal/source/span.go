package source

import (
	"fmt"
	"math"

	"fortio.org/safecast"
)

// Span is a half-open byte range into a document's text.
type Span struct {
	Start uint32 // inclusive
	End   uint32 // exclusive
}

// SpanOf builds a Span from int offsets, saturating at the uint32 range.
func SpanOf(start, end int) Span {
	return Span{Start: clampOffset(start), End: clampOffset(end)}
}

func clampOffset(n int) uint32 {
	if n < 0 {
		return 0
	}
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return math.MaxUint32
	}
	return v
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

func (s Span) Len() uint32 {
	return s.End - s.Start
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// Text returns the slice of text covered by the span, or "" when out of range.
func (s Span) Text(text string) string {
	if s.End < s.Start || int(s.End) > len(text) {
		return ""
	}
	return text[s.Start:s.End]
}

func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

// ShiftRight moves the span n bytes forward.
func (s Span) ShiftRight(n uint32) Span {
	return Span{Start: s.Start + n, End: s.End + n}
}
