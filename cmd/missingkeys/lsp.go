package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"missingkeys/internal/keycache"
	"missingkeys/internal/lsp"
	"missingkeys/internal/trace"
	"missingkeys/internal/version"
)

var lspCmd = &cobra.Command{
	Use:          "lsp",
	Short:        "Run the missing-keys language server over stdio",
	SilenceUsage: true,
	RunE:         runLSP,
}

func init() {
	lspCmd.Flags().Duration("debounce", 0, "delay before a triggered cycle runs (0 uses the server default)")
	lspCmd.Flags().Bool("disk-cache", false, "cache flattened key sequences on disk")
}

func runLSP(cmd *cobra.Command, _ []string) error {
	cleanup, err := setupTracing(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	debounce, err := cmd.Flags().GetDuration("debounce")
	if err != nil {
		return fmt.Errorf("failed to get debounce flag: %w", err)
	}
	diskCache, err := cmd.Flags().GetBool("disk-cache")
	if err != nil {
		return fmt.Errorf("failed to get disk-cache flag: %w", err)
	}
	opts := lsp.ServerOptions{
		Debounce: debounce,
		Tracer:   trace.FromContext(cmd.Context()),
		Log:      os.Stderr,
		Version:  version.Version,
	}
	if diskCache {
		if opts.Cache, err = keycache.Open("missingkeys"); err != nil {
			fmt.Fprintf(os.Stderr, "lsp: disk cache disabled: %v\n", err)
		}
	}

	server := lsp.NewServer(os.Stdin, os.Stdout, opts)
	if err := server.Run(cmd.Context()); err != nil {
		if errors.Is(err, lsp.ErrExit) {
			return nil
		}
		if errors.Is(err, lsp.ErrExitWithoutShutdown) {
			return fmt.Errorf("lsp exit without shutdown")
		}
		return err
	}
	return nil
}
