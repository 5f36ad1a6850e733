package report

import (
	"fmt"
	"io"
	"strings"

	"missingkeys/internal/engine"
)

// Short prints one line per missing key: path:line:col: missing key "k".
func Short(w io.Writer, res *engine.Result, opts Options) error {
	if res == nil || res.Disabled {
		return nil
	}
	var sb strings.Builder
	for _, pr := range res.Pairs {
		if pr.Err != nil {
			fmt.Fprintf(&sb, "%s: error: %s\n", opts.displayPath(pr.Reference), pr.Err)
			continue
		}
		for _, d := range pr.Decorations {
			path := opts.displayPath(d.Document)
			for _, l := range resolveDecoration(d) {
				if l.finding.Found {
					fmt.Fprintf(&sb, "%s:%d:%d: missing key %q\n", path, l.start.Line, l.start.Col, l.finding.Key)
				} else {
					fmt.Fprintf(&sb, "%s: missing key %q (not located)\n", path, l.finding.Key)
				}
			}
		}
	}
	if !opts.Quiet {
		sb.WriteString(summary(res))
		sb.WriteByte('\n')
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
