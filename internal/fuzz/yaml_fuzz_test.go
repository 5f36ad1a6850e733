package fuzztests

import (
	"testing"

	"missingkeys/internal/document"
	"missingkeys/internal/keys"
	"missingkeys/internal/locate"
	"missingkeys/internal/source"
	"missingkeys/internal/testkit"
)

var yamlSeeds = []string{
	"a:\n  b: 1\n",
	"\"q\":\n  'r': 1\n",
	"base: &b\n  x: 1\nchild:\n  <<: *b\n  y: 2\n",
	"- key: a.b\n  value: x\n",
	"key: é\n",
	"a: [1, {b: 2}]\n",
}

func FuzzYAMLNodeLocate(f *testing.F) {
	addCorpusSeeds(f, yamlSeeds, ".yaml", ".yml")
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		v, root, err := document.ParseYAML(input)
		if err != nil {
			return
		}
		text := string(input)
		for _, key := range keys.Flatten(v) {
			sp, ok := locate.YAMLNode(keys.Split(key), root, text)
			if !ok {
				continue
			}
			if err := testkit.CheckSpans(text, []source.Span{sp}); err != nil {
				t.Fatalf("key %q: %v", key, err)
			}
		}
	})
}

func FuzzSpecialKeyExtract(f *testing.F) {
	addCorpusSeeds(f, yamlSeeds, ".yaml", ".yml")
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		text := string(input)
		for _, value := range keys.ExtractSpecial(text, "key") {
			sp, ok := locate.Special("key", value, text)
			if !ok {
				continue
			}
			if got := sp.Text(text); got != value {
				t.Fatalf("special span covers %q, want %q", got, value)
			}
		}
	})
}
