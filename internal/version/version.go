package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build metadata for the missingkeys CLI. Overridden at build time via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0-dev"

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var (
	majorColor = color.New(color.FgYellow, color.Bold)
	minorColor = color.New(color.FgGreen, color.Bold)
	patchColor = color.New(color.FgBlue, color.Bold)
)

// Colored renders Version with one colour per numeric component. Colour is
// dropped when color.NoColor is set.
func Colored() string {
	core, suffix, hasSuffix := strings.Cut(Version, "-")
	parts := strings.SplitN(core, ".", 3)
	if len(parts) != 3 {
		return Version
	}
	out := majorColor.Sprint(parts[0]) + "." + minorColor.Sprint(parts[1]) + "." + patchColor.Sprint(parts[2])
	if hasSuffix {
		out += "-" + suffix
	}
	return out
}
