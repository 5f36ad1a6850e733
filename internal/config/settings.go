// Package config holds the comparison settings snapshot and its loaders.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"missingkeys/internal/document"
	"missingkeys/internal/locate"
)

// CompareMode selects between a single pair and same-named files in two folders.
type CompareMode uint8

const (
	ModeTwoFiles CompareMode = iota
	ModeSameNameFolders
)

// YAMLStrategy selects how YAML documents are turned into key sequences.
type YAMLStrategy uint8

const (
	// YAMLSpecialKey collects the values of one key textually.
	YAMLSpecialKey YAMLStrategy = iota
	// YAMLNestedKeys flattens YAML mappings like JSON objects.
	YAMLNestedKeys
)

const (
	DefaultSpecialKey = "key"
	// FileName is the project configuration file looked up from the working directory.
	FileName = "missingkeys.toml"
)

var (
	ErrUnknownCompareMode  = errors.New("unknown compare mode")
	ErrUnknownYAMLStrategy = errors.New("unknown yaml format")
)

func (m CompareMode) String() string {
	switch m {
	case ModeTwoFiles:
		return "two-files"
	case ModeSameNameFolders:
		return "files-with-the-same-name-in-two-folders"
	}
	return fmt.Sprintf("CompareMode(%d)", uint8(m))
}

// ParseCompareMode converts a mode name to a CompareMode.
func ParseCompareMode(s string) (CompareMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "two-files":
		return ModeTwoFiles, nil
	case "files-with-the-same-name-in-two-folders", "folders":
		return ModeSameNameFolders, nil
	default:
		return ModeTwoFiles, fmt.Errorf("%w %q (expected two-files|files-with-the-same-name-in-two-folders)", ErrUnknownCompareMode, s)
	}
}

func (y YAMLStrategy) String() string {
	switch y {
	case YAMLSpecialKey:
		return "get-values-of-special-key"
	case YAMLNestedKeys:
		return "nested-keys"
	}
	return fmt.Sprintf("YAMLStrategy(%d)", uint8(y))
}

// ParseYAMLStrategy converts a yaml format name to a YAMLStrategy.
func ParseYAMLStrategy(s string) (YAMLStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "get-values-of-special-key":
		return YAMLSpecialKey, nil
	case "nested-keys":
		return YAMLNestedKeys, nil
	default:
		return YAMLSpecialKey, fmt.Errorf("%w %q (expected get-values-of-special-key|nested-keys)", ErrUnknownYAMLStrategy, s)
	}
}

// Settings is one immutable configuration snapshot. A cycle reads a copy;
// updates replace the whole value.
type Settings struct {
	ReferencePath              string
	ComparePath                string
	FileType                   document.Format
	UsePathRelativeToWorkspace bool
	YAMLFormat                 YAMLStrategy
	YAMLSpecialKey             string
	CompareMode                CompareMode
	Enabled                    bool
	Locator                    locate.Policy
}

// Default returns the settings used when nothing is configured.
func Default() Settings {
	return Settings{
		FileType:                   document.FormatJSON,
		UsePathRelativeToWorkspace: true,
		YAMLFormat:                 YAMLSpecialKey,
		YAMLSpecialKey:             DefaultSpecialKey,
		CompareMode:                ModeTwoFiles,
		Enabled:                    true,
		Locator:                    locate.PolicyFirstMatch,
	}
}

// Unset reports whether either path is missing, which makes a cycle a no-op.
func (s Settings) Unset() bool {
	return strings.TrimSpace(s.ReferencePath) == "" || strings.TrimSpace(s.ComparePath) == ""
}

// Resolve returns the reference and comparison locations as absolute, clean paths.
// Relative paths are joined with workspaceRoot when UsePathRelativeToWorkspace is set.
func (s Settings) Resolve(workspaceRoot string) (reference, compare string) {
	return s.resolvePath(workspaceRoot, s.ReferencePath), s.resolvePath(workspaceRoot, s.ComparePath)
}

func (s Settings) resolvePath(root, p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = filepath.FromSlash(p)
	if s.UsePathRelativeToWorkspace && root != "" && !filepath.IsAbs(p) {
		p = filepath.Join(root, p)
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.Clean(p)
}

// UsesSpecialKey reports whether documents are read with the textual special-key extractor.
func (s Settings) UsesSpecialKey() bool {
	return s.FileType == document.FormatYAML && s.YAMLFormat == YAMLSpecialKey
}
