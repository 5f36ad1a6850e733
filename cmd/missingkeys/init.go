package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"missingkeys/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a default missingkeys.toml",
	Long: `Write missingkeys.toml with every setting at its default value into [dir]
(the working directory when omitted). The directory is created when missing.
An existing file is never overwritten.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	addInitFlags(initCmd)
}

func addInitFlags(cmd *cobra.Command) {
	cmd.Flags().String("reference", "", "reference file or folder to record")
	cmd.Flags().String("compare", "", "comparison file or folder to record")
	cmd.Flags().String("file-type", "", "document format to record (json|yaml)")
	cmd.Flags().String("mode", "", "compare mode to record (two-files|folders)")
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	if st, statErr := os.Stat(target); statErr != nil {
		if !errors.Is(statErr, os.ErrNotExist) {
			return statErr
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	path := filepath.Join(target, config.FileName)
	if _, statErr := os.Stat(path); statErr == nil {
		return fmt.Errorf("already initialized: %s exists", path)
	}

	var patch config.Patch
	for name, dst := range map[string]**string{
		"reference": &patch.ReferencePath,
		"compare":   &patch.ComparePath,
		"file-type": &patch.FileType,
		"mode":      &patch.CompareMode,
	} {
		if !cmd.Flags().Changed(name) {
			continue
		}
		value, flagErr := cmd.Flags().GetString(name)
		if flagErr != nil {
			return fmt.Errorf("failed to get %s flag: %w", name, flagErr)
		}
		*dst = &value
	}
	settings, err := patch.Apply(config.Default())
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := config.Write(&buf, settings); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", config.FileName, err)
	}

	rel := path
	if wd, wdErr := os.Getwd(); wdErr == nil {
		if r, relErr := filepath.Rel(wd, path); relErr == nil {
			rel = r
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", rel)
	return nil
}
