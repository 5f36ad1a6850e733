package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FindFile walks up from startDir looking for missingkeys.toml.
func FindFile(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

// LoadFile decodes a missingkeys.toml. Unknown keys are rejected.
func LoadFile(path string) (Patch, error) {
	var p Patch
	meta, err := toml.DecodeFile(path, &p)
	if err != nil {
		return Patch{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		names := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			names = append(names, k.String())
		}
		return Patch{}, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(names, ", "))
	}
	return p, nil
}

// Load applies the file at path over Default. The returned root is the
// directory holding the file, used as the workspace root for relative paths.
func Load(path string) (Settings, string, error) {
	p, err := LoadFile(path)
	if err != nil {
		return Settings{}, "", err
	}
	s, err := p.Apply(Default())
	if err != nil {
		return Settings{}, "", fmt.Errorf("%s: %w", path, err)
	}
	return s, filepath.Dir(path), nil
}

type fileLayout struct {
	ReferencePath              string `toml:"reference_path"`
	ComparePath                string `toml:"compare_path"`
	FileType                   string `toml:"file_type"`
	UsePathRelativeToWorkspace bool   `toml:"use_path_relative_to_workspace"`
	YAMLFormat                 string `toml:"yaml_format"`
	YAMLSpecialKey             string `toml:"yaml_special_key"`
	CompareMode                string `toml:"compare_mode"`
	IsEnabled                  bool   `toml:"is_enabled"`
	Locator                    string `toml:"locator"`
}

// Write encodes s as a complete missingkeys.toml.
func Write(w io.Writer, s Settings) error {
	if _, err := io.WriteString(w, "# missingkeys configuration\n"); err != nil {
		return err
	}
	return toml.NewEncoder(w).Encode(fileLayout{
		ReferencePath:              s.ReferencePath,
		ComparePath:                s.ComparePath,
		FileType:                   s.FileType.String(),
		UsePathRelativeToWorkspace: s.UsePathRelativeToWorkspace,
		YAMLFormat:                 s.YAMLFormat.String(),
		YAMLSpecialKey:             s.YAMLSpecialKey,
		CompareMode:                s.CompareMode.String(),
		IsEnabled:                  s.Enabled,
		Locator:                    s.Locator.String(),
	})
}
