package report

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"missingkeys/internal/engine"
)

type palette struct {
	warn, err, path, caret, dim, key *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		warn:  color.New(color.FgYellow, color.Bold),
		err:   color.New(color.FgRed, color.Bold),
		path:  color.New(color.FgCyan),
		caret: color.New(color.FgRed, color.Bold),
		dim:   color.New(color.FgBlue, color.Bold),
		key:   color.New(color.Bold),
	}
	for _, c := range []*color.Color{p.warn, p.err, p.path, p.caret, p.dim, p.key} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// Pretty prints each missing key with its source line and a caret underline:
//
//	warning[missing-key]: missing key "a.b" (present in en.json)
//	  --> en.json:3:5
//	   |
//	 3 |     "b": "x"
//	   |     ^^^
func Pretty(w io.Writer, res *engine.Result, opts Options) error {
	if res == nil || res.Disabled {
		return nil
	}
	p := newPalette(opts.Color)
	var sb strings.Builder
	for _, pr := range res.Pairs {
		if pr.Err != nil {
			fmt.Fprintf(&sb, "%s: %s\n\n", p.err.Sprint("error"), pr.Err)
			continue
		}
		refName := filepath.Base(pr.Reference)
		for _, d := range pr.Decorations {
			for _, l := range resolveDecoration(d) {
				writePrettyFinding(&sb, p, opts, refName, d.Document, l)
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

func writePrettyFinding(sb *strings.Builder, p palette, opts Options, refName, doc string, l located) {
	fmt.Fprintf(sb, "%s: missing key %s (present in %s)\n",
		p.warn.Sprint("warning[missing-key]"), p.key.Sprint(strconv.Quote(l.finding.Key)), refName)
	path := opts.displayPath(doc)
	if !l.finding.Found {
		fmt.Fprintf(sb, "  %s %s (not located)\n\n", p.dim.Sprint("-->"), p.path.Sprint(path))
		return
	}
	fmt.Fprintf(sb, "  %s %s\n", p.dim.Sprint("-->"), p.path.Sprintf("%s:%d:%d", path, l.start.Line, l.start.Col))

	line := strings.TrimRight(l.file.GetLine(l.start.Line), "\r")
	gutter := strconv.Itoa(int(l.start.Line))
	pad := strings.Repeat(" ", len(gutter))
	fmt.Fprintf(sb, " %s %s\n", pad, p.dim.Sprint("|"))
	fmt.Fprintf(sb, " %s %s %s\n", p.dim.Sprint(gutter), p.dim.Sprint("|"), line)

	startCol := int(l.start.Col) - 1
	startCol = min(max(startCol, 0), len(line))
	endCol := len(line)
	if l.end.Line == l.start.Line {
		endCol = min(max(int(l.end.Col)-1, startCol), len(line))
	}
	lead := runewidth.StringWidth(expandTabs(line[:startCol]))
	width := max(runewidth.StringWidth(line[startCol:endCol]), 1)
	fmt.Fprintf(sb, " %s %s %s%s\n\n", pad, p.dim.Sprint("|"),
		strings.Repeat(" ", lead), p.caret.Sprint(strings.Repeat("^", width)))
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func summary(res *engine.Result) string {
	failed := 0
	affected := 0
	for _, pr := range res.Pairs {
		switch {
		case pr.Err != nil:
			failed++
		case len(pr.Missing) > 0:
			affected++
		}
	}
	missing := res.MissingCount()
	out := fmt.Sprintf("%d missing %s in %d of %d %s", missing, plural(missing, "key", "keys"),
		affected, len(res.Pairs), plural(len(res.Pairs), "pair", "pairs"))
	if failed > 0 {
		out += fmt.Sprintf(", %d failed", failed)
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
