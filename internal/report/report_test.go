package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"missingkeys/internal/engine"
	"missingkeys/internal/source"
)

const compareText = "{\n  \"a\": {\n    \"b\": 1\n  }\n}\n"

func sampleResult() *engine.Result {
	// "b" sits on line 3, column 5.
	start := strings.Index(compareText, `"b"`)
	finding := engine.Finding{Key: "a.b", Span: source.SpanOf(start, start+3), Found: true}
	return &engine.Result{
		Pairs: []engine.PairResult{{
			Pair:    engine.Pair{Name: "de.json", Reference: "/ws/ref/de.json", Compare: "/ws/cmp/de.json"},
			Missing: []string{"a.b", "c"},
			Decorations: []engine.Decoration{{
				Document: "/ws/ref/de.json",
				Text:     compareText,
				Findings: []engine.Finding{finding, {Key: "c"}},
			}},
		}},
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPretty, "pretty": FormatPretty, "SHORT": FormatShort, "json": FormatJSON} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestShort(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Short(&buf, sampleResult(), Options{BaseDir: "/ws"}))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Equal(t, []string{
		`ref/de.json:3:5: missing key "a.b"`,
		`ref/de.json: missing key "c" (not located)`,
		`2 missing keys in 1 of 1 pair`,
	}, lines)
}

func TestPrettyCaretUnderline(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, sampleResult(), Options{BaseDir: "/ws", Quiet: true}))
	out := buf.String()
	require.Contains(t, out, `warning[missing-key]: missing key "a.b" (present in de.json)`)
	require.Contains(t, out, "  --> ref/de.json:3:5\n")
	require.Contains(t, out, ` 3 |     "b": 1`+"\n")
	require.Contains(t, out, "   |     ^^^\n")
	require.Contains(t, out, "  --> ref/de.json (not located)")
	require.NotContains(t, out, "pair")
}

func TestPrettyPairError(t *testing.T) {
	res := &engine.Result{Pairs: []engine.PairResult{{
		Pair: engine.Pair{Name: "x.json", Reference: "/ws/ref/x.json"},
		Err:  errors.New("boom"),
	}}}
	var buf bytes.Buffer
	require.NoError(t, Pretty(&buf, res, Options{}))
	require.Contains(t, buf.String(), "error: boom")
	require.Contains(t, buf.String(), "0 missing keys in 0 of 1 pair, 1 failed")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleResult(), Options{PathMode: PathModeBasename}))
	var out Output
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	require.Equal(t, 2, out.Missing)
	require.Len(t, out.Pairs, 1)
	pair := out.Pairs[0]
	require.Equal(t, "de.json", pair.Reference)
	require.Equal(t, []string{"a.b", "c"}, pair.Missing)
	require.Len(t, pair.Findings, 2)
	loc := pair.Findings[0].Location
	require.NotNil(t, loc)
	require.Equal(t, uint32(3), loc.StartLine)
	require.Equal(t, uint32(5), loc.StartCol)
	require.Equal(t, uint32(3), loc.EndByte-loc.StartByte)
	require.Nil(t, pair.Findings[1].Location)
}

func TestDisabledRendersNothing(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatPretty, &engine.Result{Disabled: true}, Options{}))
	require.Empty(t, buf.String())
}
