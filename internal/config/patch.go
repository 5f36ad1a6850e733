package config

import (
	"encoding/json"
	"fmt"

	"missingkeys/internal/document"
	"missingkeys/internal/locate"
)

// Patch is a partial settings update. Nil fields leave the base untouched.
// The same shape is decoded from missingkeys.toml and from LSP settings.
type Patch struct {
	ReferencePath              *string `toml:"reference_path" json:"referencePath,omitempty"`
	ReferenceFilePath          *string `toml:"reference_file_path" json:"referenceFilePath,omitempty"`
	ComparePath                *string `toml:"compare_path" json:"comparePath,omitempty"`
	CompareFilePath            *string `toml:"compare_file_path" json:"compareFilePath,omitempty"`
	FileType                   *string `toml:"file_type" json:"fileType,omitempty"`
	UsePathRelativeToWorkspace *bool   `toml:"use_path_relative_to_workspace" json:"usePathRelativeToWorkspace,omitempty"`
	YAMLFormat                 *string `toml:"yaml_format" json:"yamlFormat,omitempty"`
	YAMLSpecialKey             *string `toml:"yaml_special_key" json:"yamlSpecialKey,omitempty"`
	CompareMode                *string `toml:"compare_mode" json:"compareMode,omitempty"`
	IsEnabled                  *bool   `toml:"is_enabled" json:"isEnabled,omitempty"`
	Locator                    *string `toml:"locator" json:"locator,omitempty"`
}

// DecodeJSON reads a Patch from a JSON object.
func DecodeJSON(raw json.RawMessage) (Patch, error) {
	var p Patch
	if len(raw) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(raw, &p); err != nil {
		return Patch{}, fmt.Errorf("decode settings: %w", err)
	}
	return p, nil
}

// Apply returns base with every non-nil field of p applied. On error base is
// returned unchanged.
func (p Patch) Apply(base Settings) (Settings, error) {
	out := base
	// the *FilePath spellings belong to the single-pair mode and win when both are present
	if p.ReferencePath != nil {
		out.ReferencePath = *p.ReferencePath
	}
	if p.ReferenceFilePath != nil {
		out.ReferencePath = *p.ReferenceFilePath
	}
	if p.ComparePath != nil {
		out.ComparePath = *p.ComparePath
	}
	if p.CompareFilePath != nil {
		out.ComparePath = *p.CompareFilePath
	}
	if p.FileType != nil {
		f, err := document.ParseFormat(*p.FileType)
		if err != nil {
			return base, err
		}
		out.FileType = f
	}
	if p.UsePathRelativeToWorkspace != nil {
		out.UsePathRelativeToWorkspace = *p.UsePathRelativeToWorkspace
	}
	if p.YAMLFormat != nil {
		y, err := ParseYAMLStrategy(*p.YAMLFormat)
		if err != nil {
			return base, err
		}
		out.YAMLFormat = y
	}
	if p.YAMLSpecialKey != nil {
		out.YAMLSpecialKey = *p.YAMLSpecialKey
	}
	if p.CompareMode != nil {
		m, err := ParseCompareMode(*p.CompareMode)
		if err != nil {
			return base, err
		}
		out.CompareMode = m
	}
	if p.IsEnabled != nil {
		out.Enabled = *p.IsEnabled
	}
	if p.Locator != nil {
		l, err := locate.ParsePolicy(*p.Locator)
		if err != nil {
			return base, err
		}
		out.Locator = l
	}
	return out, nil
}
