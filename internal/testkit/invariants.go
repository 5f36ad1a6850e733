// Package testkit holds invariant checks shared by unit and fuzz tests.
package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"

	"missingkeys/internal/source"
)

// CheckSpans verifies that every located span
// 1) is non-empty and inside text
// 2) starts and ends on rune boundaries
// 3) stays on a single line.
func CheckSpans(text string, spans []source.Span) error {
	lenText, err := safecast.Conv[uint32](len(text))
	if err != nil {
		return fmt.Errorf("text length overflow: %w", err)
	}
	for i, sp := range spans {
		if sp.End <= sp.Start {
			return fmt.Errorf("span %d is empty: %v", i, sp)
		}
		if sp.End > lenText {
			return fmt.Errorf("span %d ends beyond text: %d > %d", i, sp.End, lenText)
		}
		if !utf8.RuneStart(text[sp.Start]) {
			return fmt.Errorf("span %d starts inside a rune: %v", i, sp)
		}
		if sp.End < lenText && !utf8.RuneStart(text[sp.End]) {
			return fmt.Errorf("span %d ends inside a rune: %v", i, sp)
		}
		if strings.ContainsAny(sp.Text(text), "\r\n") {
			return fmt.Errorf("span %d crosses a line break: %q", i, sp.Text(text))
		}
	}
	return nil
}

// CheckKeyToken verifies that sp covers exactly one JSON string token whose
// decoded value is segment. The token may be spelled with escapes.
func CheckKeyToken(text string, sp source.Span, segment string) error {
	if err := CheckSpans(text, []source.Span{sp}); err != nil {
		return err
	}
	got := sp.Text(text)
	if got == `"`+segment+`"` {
		return nil
	}
	var decoded string
	if err := json.Unmarshal([]byte(got), &decoded); err != nil || decoded != segment {
		return fmt.Errorf("span %v covers %q, want a token for %q", sp, got, segment)
	}
	return nil
}
