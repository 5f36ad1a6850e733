package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"missingkeys/internal/config"
	"missingkeys/internal/engine"
	"missingkeys/internal/keycache"
	"missingkeys/internal/observ"
	"missingkeys/internal/report"
)

// errKeysMissing is returned after the report is printed so main exits 1.
var errKeysMissing = errors.New("missing keys found")

var checkCmd = &cobra.Command{
	Use:   "check [flags] [reference compare]",
	Short: "Report keys present in the reference but missing from the comparison",
	Long: `Compare a reference document against a comparison document, or every
same-named file of two folders, and print each missing key with its position.
Settings come from missingkeys.toml (searched upwards from the working
directory) and are overridden by flags. Exits with status 1 when keys are missing.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 0 && len(args) != 2 {
			return fmt.Errorf("expected either no arguments or <reference> <compare>, got %d", len(args))
		}
		return nil
	},
	RunE: runCheck,
}

func init() {
	addCheckFlags(checkCmd)
}

func addCheckFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "path to missingkeys.toml (default: search upwards)")
	cmd.Flags().String("reference", "", "reference file or folder")
	cmd.Flags().String("compare", "", "comparison file or folder")
	cmd.Flags().String("file-type", "", "document format (json|yaml)")
	cmd.Flags().String("yaml-format", "", "YAML key strategy (get-values-of-special-key|nested-keys)")
	cmd.Flags().String("special-key", "", "YAML special key name")
	cmd.Flags().String("mode", "", "compare mode (two-files|folders)")
	cmd.Flags().String("locator", "", "locator policy (first-match|legacy|scoped)")
	cmd.Flags().String("decorate", "reference", "document to report positions in (reference|compare)")
	cmd.Flags().String("format", "pretty", "output format (pretty|short|json)")
	cmd.Flags().Int("jobs", 0, "max parallel pairs in folder mode (0=auto)")
	cmd.Flags().String("ui", "auto", "progress UI mode (auto|on|off)")
	cmd.Flags().Bool("disk-cache", false, "cache flattened key sequences on disk")
	cmd.Flags().Bool("clear-cache", false, "drop cached key sequences before checking")
	cmd.Flags().Bool("fullpath", false, "emit absolute file paths in output")
}

// runCheck resolves settings, runs one cycle and renders the result.
func runCheck(cmd *cobra.Command, args []string) error {
	traceCleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer traceCleanup()

	profCleanup, err := setupProfiling(cmd)
	if err != nil {
		return err
	}
	defer profCleanup()

	settings, root, err := resolveCheckSettings(cmd, args)
	if err != nil {
		return err
	}
	if settings.Unset() {
		return fmt.Errorf("reference and comparison paths are required (set them in %s or pass --reference/--compare)", config.FileName)
	}

	formatStr, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	format, err := report.ParseFormat(formatStr)
	if err != nil {
		return err
	}
	decorate, err := cmd.Flags().GetString("decorate")
	if err != nil {
		return fmt.Errorf("failed to get decorate flag: %w", err)
	}
	side, err := parseDecorate(decorate)
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	uiFlag, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiFlag)
	if err != nil {
		return err
	}
	diskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	clearCache, err := cmd.Flags().GetBool("clear-cache")
	if err != nil {
		return fmt.Errorf("failed to get clear-cache flag: %w", err)
	}
	fullPath, err := cmd.Flags().GetBool("fullpath")
	if err != nil {
		return fmt.Errorf("failed to get fullpath flag: %w", err)
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return fmt.Errorf("failed to get quiet flag: %w", err)
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return fmt.Errorf("failed to get timings flag: %w", err)
	}

	req := engine.Request{
		Settings: settings,
		Root:     root,
		Side:     side,
		Jobs:     jobs,
	}
	req.Cache = openCheckCache(cmd, diskCache, clearCache)
	if showTimings {
		req.Timer = observ.NewTimer()
	}

	provider := engine.NewDiskProvider()
	var res *engine.Result
	if settings.CompareMode == config.ModeSameNameFolders && shouldUseTUI(mode) && !quiet {
		refDir, _ := settings.Resolve(root)
		res, err = runCheckWithUI(cmd.Context(), "checking "+filepath.Base(refDir), nil, provider, req)
	} else {
		res, err = engine.Run(cmd.Context(), provider, req)
	}
	if err != nil {
		return err
	}

	opts := report.Options{
		Color: useColor(cmd) && format == report.FormatPretty,
		Quiet: quiet,
	}
	if wd, wdErr := os.Getwd(); wdErr == nil {
		opts.BaseDir = wd
	}
	if fullPath {
		opts.PathMode = report.PathModeAbsolute
	}
	if err := report.Write(cmd.OutOrStdout(), format, res, opts); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if showTimings {
		printTimings(cmd.ErrOrStderr(), req.Timer)
	}

	if res.MissingCount() > 0 || res.Err() != nil {
		cmd.SilenceUsage = true
		cmd.SilenceErrors = true
		return errKeysMissing
	}
	return nil
}

// resolveCheckSettings layers missingkeys.toml, positional arguments and flags
// over the defaults. The returned root anchors relative paths.
func resolveCheckSettings(cmd *cobra.Command, args []string) (config.Settings, string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return config.Settings{}, "", err
	}
	settings, root := config.Default(), wd

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return config.Settings{}, "", fmt.Errorf("failed to get config flag: %w", err)
	}
	if configPath == "" {
		found, ok, findErr := config.FindFile(wd)
		if findErr != nil {
			return config.Settings{}, "", findErr
		}
		if ok {
			configPath = found
		}
	}
	if configPath != "" {
		if settings, root, err = config.Load(configPath); err != nil {
			return config.Settings{}, "", err
		}
	}

	var patch config.Patch
	if len(args) == 2 {
		patch.ReferencePath = absFrom(wd, args[0])
		patch.ComparePath = absFrom(wd, args[1])
	}
	for _, f := range []struct {
		name string
		dst  **string
		abs  bool
	}{
		{"reference", &patch.ReferencePath, true},
		{"compare", &patch.ComparePath, true},
		{"file-type", &patch.FileType, false},
		{"yaml-format", &patch.YAMLFormat, false},
		{"special-key", &patch.YAMLSpecialKey, false},
		{"mode", &patch.CompareMode, false},
		{"locator", &patch.Locator, false},
	} {
		if !cmd.Flags().Changed(f.name) {
			continue
		}
		value, flagErr := cmd.Flags().GetString(f.name)
		if flagErr != nil {
			return config.Settings{}, "", fmt.Errorf("failed to get %s flag: %w", f.name, flagErr)
		}
		if f.abs {
			*f.dst = absFrom(wd, value)
		} else {
			*f.dst = &value
		}
	}
	settings, err = patch.Apply(settings)
	if err != nil {
		return config.Settings{}, "", err
	}
	// the switch only matters to editors; a CLI run is always explicit
	settings.Enabled = true
	return settings, root, nil
}

// absFrom anchors command-line paths at the working directory rather than
// at the configuration file.
func absFrom(wd, p string) *string {
	p = strings.TrimSpace(p)
	if p != "" && !filepath.IsAbs(p) {
		p = filepath.Join(wd, p)
	}
	return &p
}

func parseDecorate(value string) (engine.Side, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "reference":
		return engine.SideReference, nil
	case "compare":
		return engine.SideCompare, nil
	default:
		return engine.SideReference, fmt.Errorf("invalid --decorate value %q (expected reference|compare)", value)
	}
}

// openCheckCache opens the on-disk key cache, dropping its entries first when
// drop is set. Cache failures are reported and only disable caching.
func openCheckCache(cmd *cobra.Command, use, drop bool) *keycache.Cache {
	if !use && !drop {
		return nil
	}
	cache, err := keycache.Open("missingkeys")
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: disk cache disabled: %v\n", err)
		return nil
	}
	if drop {
		if err := cache.DropAll(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: failed to clear disk cache: %v\n", err)
		}
	}
	if !use {
		return nil
	}
	return cache
}
