package source

type (
	// FileID uniquely identifies a document within a FileSet.
	FileID uint32
	// FileFlags encodes metadata about a loaded document.
	FileFlags uint8
)

const (
	// FileVirtual indicates the document was added from memory (editor buffer, test, stdin).
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	FileDecodedUTF16
)

// File captures metadata and content for a single document.
type File struct {
	ID      FileID
	Path    string
	Content []byte
	LineIdx []uint32
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a document.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
