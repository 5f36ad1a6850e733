package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"missingkeys/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "missingkeys",
	Short: "Find translation keys missing from a localization file",
	Long: `missingkeys compares a reference JSON or YAML document against another,
reports every dotted key the comparison lacks and points at it in the source.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		applyColorFlag(cmd)
		return nil
	},
}

// main registers subcommands and persistent flags, then executes the root command.
// Any returned error exits with status 1.
func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(lspCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)

	addPersistentFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addPersistentFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.String("trace", "", "write trace events to a file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.String("cpu-profile", "", "write a CPU profile to file")
	flags.String("mem-profile", "", "write a heap profile to file")
	flags.String("runtime-trace", "", "write a Go runtime trace to file")
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
