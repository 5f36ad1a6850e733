package fuzztests

import (
	"testing"

	"missingkeys/internal/document"
	"missingkeys/internal/keys"
	"missingkeys/internal/locate"
	"missingkeys/internal/testkit"
)

const maxFuzzInput = 1 << 16

var jsonSeeds = []string{
	``,
	`{}`,
	`{"a":{"b":"x"},"c":"y"}`,
	`{"x":{"b":1},"a":{"c":2,"b":3}}`,
	`{"a.b":{"c":1}}`,
	`{"\u0061":1,"a\"b":2}`,
	`[{"a":1}]`,
	"\xEF\xBB\xBF{\"bom\":true}",
	`{"a":`,
}

func FuzzJSONLocate(f *testing.F) {
	addCorpusSeeds(f, jsonSeeds, ".json")
	f.Fuzz(func(t *testing.T, input []byte) {
		if len(input) > maxFuzzInput {
			input = input[:maxFuzzInput]
		}
		v, err := document.ParseJSON(input)
		if err != nil {
			return
		}
		text := string(input)
		for _, key := range keys.Flatten(v) {
			path := keys.Split(key)
			for _, policy := range []locate.Policy{locate.PolicyFirstMatch, locate.PolicyLegacy, locate.PolicyScoped} {
				sp, ok := locate.JSON(policy, path, text)
				if !ok {
					continue
				}
				if err := testkit.CheckKeyToken(text, sp, path[len(path)-1]); err != nil {
					t.Fatalf("%s locator, key %q: %v", policy, key, err)
				}
			}
		}
	})
}

func FuzzDiffIsSubsetOfReference(f *testing.F) {
	f.Add([]byte(`{"a":1,"b":{"c":2}}`), []byte(`{"a":1}`))
	f.Add([]byte(`{}`), []byte(`{"a":1}`))
	f.Fuzz(func(t *testing.T, ref, cmp []byte) {
		rv, err := document.ParseJSON(ref)
		if err != nil {
			return
		}
		cv, err := document.ParseJSON(cmp)
		if err != nil {
			return
		}
		refKeys, cmpKeys := keys.Flatten(rv), keys.Flatten(cv)
		present := make(map[string]bool, len(cmpKeys))
		for _, k := range cmpKeys {
			present[k] = true
		}
		inRef := make(map[string]bool, len(refKeys))
		for _, k := range refKeys {
			inRef[k] = true
		}
		for _, k := range keys.Diff(refKeys, cmpKeys) {
			if !inRef[k] || present[k] {
				t.Fatalf("diff produced %q (in reference: %v, in comparison: %v)", k, inRef[k], present[k])
			}
		}
	})
}
