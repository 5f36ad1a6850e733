package report

import (
	"io"

	"missingkeys/internal/engine"
	"missingkeys/internal/source"
)

// Write renders res in format.
func Write(w io.Writer, format Format, res *engine.Result, opts Options) error {
	switch format {
	case FormatJSON:
		return JSON(w, res, opts)
	case FormatShort:
		return Short(w, res, opts)
	default:
		return Pretty(w, res, opts)
	}
}

// located is one finding resolved against its document text.
type located struct {
	finding    engine.Finding
	file       *source.File
	start, end source.LineCol
}

func resolveDecoration(d engine.Decoration) []located {
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual(d.Document, []byte(d.Text)))
	out := make([]located, 0, len(d.Findings))
	for _, f := range d.Findings {
		l := located{finding: f, file: file}
		if f.Found {
			l.start, l.end = file.Resolve(f.Span)
		}
		out = append(out, l)
	}
	return out
}
