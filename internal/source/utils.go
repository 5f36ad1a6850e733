package source

import (
	"bytes"
	"fmt"
	"path/filepath"
	"slices"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// Decode strips a UTF-8 byte order mark and transcodes UTF-16 content that
// carries a BOM into UTF-8. Content without a BOM is returned unchanged.
func Decode(content []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	switch {
	case bytes.HasPrefix(content, bomUTF8):
		flags |= FileHadBOM
	case bytes.HasPrefix(content, bomUTF16BE), bytes.HasPrefix(content, bomUTF16LE):
		flags |= FileHadBOM | FileDecodedUTF16
	default:
		return content, 0, nil
	}
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), content)
	if err != nil {
		return nil, 0, fmt.Errorf("decode byte order mark: %w", err)
	}
	return out, flags, nil
}

// normalizeCRLF replaces every \r\n with \n and leaves lone \r untouched.
func normalizeCRLF(content []byte) ([]byte, bool) {
	if !slices.Contains(content, '\r') {
		return content, false
	}

	out := make([]byte, 0, len(content))
	changed := false

	i := 0
	for i < len(content) {
		if content[i] == '\r' && i+1 < len(content) && content[i+1] == '\n' {
			out = append(out, '\n')
			i += 2
			changed = true
		} else {
			out = append(out, content[i])
			i++
		}
	}
	return out, changed
}

func buildLineIndex(content []byte) []uint32 {
	out := make([]uint32, 0, bytes.Count(content, []byte{'\n'}))
	for i, b := range content {
		if b == '\n' {
			out = append(out, clampOffset(i))
		}
	}
	return out
}

func toLineCol(lineIdx []uint32, off uint32) LineCol {
	if len(lineIdx) == 0 {
		return LineCol{Line: 1, Col: off + 1}
	}

	// largest i with lineIdx[i] < off
	lo, hi := 0, len(lineIdx)-1
	for lo <= hi {
		mid := (lo + hi) >> 1
		if lineIdx[mid] < off {
			lo = mid + 1
		} else {
			hi = mid - 1
		}
	}
	if hi < 0 {
		return LineCol{Line: 1, Col: off + 1}
	}
	startOff := lineIdx[hi] + 1
	return LineCol{Line: clampOffset(hi + 2), Col: off - startOff + 1}
}

func normalizePath(p string) string {
	return filepath.ToSlash(filepath.Clean(p))
}
