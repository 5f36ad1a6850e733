package report

import (
	"encoding/json"
	"io"

	"missingkeys/internal/engine"
)

// LocationJSON is the position of one missing key.
type LocationJSON struct {
	File      string `json:"file"`
	StartByte uint32 `json:"start_byte"`
	EndByte   uint32 `json:"end_byte"`
	StartLine uint32 `json:"start_line"`
	StartCol  uint32 `json:"start_col"`
	EndLine   uint32 `json:"end_line"`
	EndCol    uint32 `json:"end_col"`
}

// FindingJSON is one missing key in a decorated document.
type FindingJSON struct {
	Key      string        `json:"key"`
	Location *LocationJSON `json:"location,omitempty"`
}

// PairJSON is the outcome of one pair.
type PairJSON struct {
	Name      string        `json:"name"`
	Reference string        `json:"reference"`
	Compare   string        `json:"compare"`
	Missing   []string      `json:"missing"`
	Findings  []FindingJSON `json:"findings,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Output is the root of the JSON report.
type Output struct {
	Disabled bool       `json:"disabled,omitempty"`
	Pairs    []PairJSON `json:"pairs"`
	Missing  int        `json:"missing"`
}

// BuildOutput assembles the JSON report without serialising it.
func BuildOutput(res *engine.Result, opts Options) Output {
	out := Output{Pairs: []PairJSON{}}
	if res == nil {
		return out
	}
	out.Disabled = res.Disabled
	out.Missing = res.MissingCount()
	for _, pr := range res.Pairs {
		pj := PairJSON{
			Name:      pr.Name,
			Reference: opts.displayPath(pr.Reference),
			Compare:   opts.displayPath(pr.Compare),
			Missing:   pr.Missing,
		}
		if pj.Missing == nil {
			pj.Missing = []string{}
		}
		if pr.Err != nil {
			pj.Error = pr.Err.Error()
		}
		for _, d := range pr.Decorations {
			file := opts.displayPath(d.Document)
			for _, l := range resolveDecoration(d) {
				fj := FindingJSON{Key: l.finding.Key}
				if l.finding.Found {
					fj.Location = &LocationJSON{
						File:      file,
						StartByte: l.finding.Span.Start,
						EndByte:   l.finding.Span.End,
						StartLine: l.start.Line,
						StartCol:  l.start.Col,
						EndLine:   l.end.Line,
						EndCol:    l.end.Col,
					}
				}
				pj.Findings = append(pj.Findings, fj)
			}
		}
		out.Pairs = append(out.Pairs, pj)
	}
	return out
}

// JSON writes the indented JSON report.
func JSON(w io.Writer, res *engine.Result, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildOutput(res, opts))
}
