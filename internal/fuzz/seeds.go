package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

// addCorpusSeeds adds every testdata document with one of exts plus a few
// inline shapes that exercised past edge cases.
func addCorpusSeeds(f *testing.F, inline []string, exts ...string) {
	for _, s := range inline {
		f.Add([]byte(s))
	}
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	want := make(map[string]bool, len(exts))
	for _, ext := range exts {
		want[ext] = true
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || !want[filepath.Ext(path)] {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
