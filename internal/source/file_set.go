package source

import (
	"crypto/sha256"
	"fmt"
	"os"

	"fortio.org/safecast"
)

// FileSet manages a collection of loaded documents.
type FileSet struct {
	files []File
	index map[string]FileID // path -> latest id
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
		index: make(map[string]FileID),
	}
}

// Add stores a document from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a document with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	normalizedPath := normalizePath(path)
	fileSet.files = append(fileSet.files, File{
		ID:      id,
		Path:    normalizedPath,
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	})
	fileSet.index[normalizedPath] = id
	return id
}

// Load reads a document from disk, decodes BOM-marked content, normalizes CRLF and calls Add.
func (fileSet *FileSet) Load(path string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags, err := Decode(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory document with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the document metadata for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// GetLatest returns the latest document ID for the given path, if it exists.
func (fileSet *FileSet) GetLatest(path string) (FileID, bool) {
	id, ok := fileSet.index[normalizePath(path)]
	return id, ok
}

// GetByPath returns the latest document loaded under path.
func (fileSet *FileSet) GetByPath(path string) (*File, bool) {
	if id, ok := fileSet.index[normalizePath(path)]; ok {
		return &fileSet.files[id], true
	}
	return nil, false
}

// Len reports how many documents were added.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// Text returns the document content as a string.
func (f *File) Text() string {
	return string(f.Content)
}

// Resolve converts a span into line and column positions.
func (f *File) Resolve(span Span) (start, end LineCol) {
	return toLineCol(f.LineIdx, span.Start), toLineCol(f.LineIdx, span.End)
}

// LineStart returns the byte offset where the 1-based line begins.
func (f *File) LineStart(lineNum uint32) (uint32, bool) {
	switch {
	case lineNum == 0:
		return 0, false
	case lineNum == 1:
		return 0, true
	case int(lineNum-2) < len(f.LineIdx):
		return f.LineIdx[lineNum-2] + 1, true
	default:
		return 0, false
	}
}

// GetLine returns the text of the 1-based line, or "" when it does not exist.
func (f *File) GetLine(lineNum uint32) string {
	start, ok := f.LineStart(lineNum)
	if !ok {
		return ""
	}
	lenContent := clampOffset(len(f.Content))
	if start >= lenContent {
		return ""
	}
	end := lenContent
	if int(lineNum-1) < len(f.LineIdx) {
		end = f.LineIdx[lineNum-1]
	}
	return string(f.Content[start:end])
}
