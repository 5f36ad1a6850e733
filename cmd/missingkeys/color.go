package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// useColor resolves --color against the terminal state of stdout.
func useColor(cmd *cobra.Command) bool {
	value, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return false
	}
	switch value {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func applyColorFlag(cmd *cobra.Command) {
	color.NoColor = !useColor(cmd)
}
