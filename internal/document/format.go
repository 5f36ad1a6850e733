package document

import (
	"errors"
	"fmt"
	"strings"
)

// Format selects the parser for a document.
type Format uint8

const (
	FormatJSON Format = iota
	FormatYAML
)

// ErrUnknownFormat reports an unsupported file type name.
var ErrUnknownFormat = errors.New("unknown file type")

// ErrMalformed wraps every parse failure.
var ErrMalformed = errors.New("malformed document")

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat converts a file type name (json|yaml) to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return FormatJSON, fmt.Errorf("%w %q (expected json|yaml)", ErrUnknownFormat, s)
	}
}

// Parse dispatches to the parser for format.
func Parse(format Format, data []byte) (Value, error) {
	switch format {
	case FormatYAML:
		v, _, err := ParseYAML(data)
		return v, err
	default:
		return ParseJSON(data)
	}
}
