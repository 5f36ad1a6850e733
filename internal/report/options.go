// Package report renders comparison results for the terminal.
package report

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format selects a renderer.
type Format uint8

const (
	FormatPretty Format = iota
	FormatShort
	FormatJSON
)

func (f Format) String() string {
	switch f {
	case FormatPretty:
		return "pretty"
	case FormatShort:
		return "short"
	case FormatJSON:
		return "json"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// ParseFormat converts pretty|short|json to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "pretty":
		return FormatPretty, nil
	case "short":
		return FormatShort, nil
	case "json":
		return FormatJSON, nil
	default:
		return FormatPretty, fmt.Errorf("unsupported format %q (must be pretty, short or json)", s)
	}
}

// PathMode specifies how file paths are displayed.
type PathMode uint8

const (
	// PathModeRelative prints paths relative to Options.BaseDir when possible.
	PathModeRelative PathMode = iota
	PathModeAbsolute
	PathModeBasename
)

// Options configures every renderer.
type Options struct {
	Color    bool
	PathMode PathMode
	BaseDir  string
	// Quiet drops the summary line.
	Quiet bool
}

func (o Options) displayPath(path string) string {
	switch o.PathMode {
	case PathModeAbsolute:
		return path
	case PathModeBasename:
		return filepath.Base(path)
	}
	if o.BaseDir == "" {
		return path
	}
	rel, err := filepath.Rel(o.BaseDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
