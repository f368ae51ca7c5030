package source

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"fortio.org/safecast"
)

// FileSet manages a collection of template documents.
type FileSet struct {
	files   []File
	baseDir string
}

// NewFileSet creates a new empty FileSet.
func NewFileSet() *FileSet {
	return &FileSet{
		files: make([]File, 0),
	}
}

// NewFileSetWithBase creates a FileSet whose display paths are relative to baseDir.
func NewFileSetWithBase(baseDir string) *FileSet {
	fs := NewFileSet()
	fs.baseDir = baseDir
	return fs
}

// BaseDir returns the base directory, falling back to the working directory.
func (fileSet *FileSet) BaseDir() string {
	if fileSet.baseDir == "" {
		if wd, err := os.Getwd(); err == nil {
			return wd
		}
	}
	return fileSet.baseDir
}

// Add stores a document from normalized bytes, computes LineIdx and Hash, and returns a new FileID.
// It always creates a new FileID even if a document with the same path already exists.
func (fileSet *FileSet) Add(path string, content []byte, flags FileFlags) FileID {
	lenFiles, err := safecast.Conv[uint32](len(fileSet.files))
	if err != nil {
		panic(fmt.Errorf("len files overflow: %w", err))
	}
	id := FileID(lenFiles)
	f := newFile(id, path, content, flags)
	fileSet.files = append(fileSet.files, *f)
	return id
}

// Load reads a document from disk, decodes it from encoding (empty means UTF-8),
// normalizes CRLF/BOM, and calls Add.
func (fileSet *FileSet) Load(path, encoding string) (FileID, error) {
	// #nosec G304 -- path is provided by the caller
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	content, flags, err := prepare(content, encoding)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", path, err)
	}
	return fileSet.Add(path, content, flags), nil
}

// AddVirtual adds an in-memory document with the FileVirtual flag.
func (fileSet *FileSet) AddVirtual(name string, content []byte) FileID {
	return fileSet.Add(name, content, FileVirtual)
}

// Get returns the document for the given ID.
func (fileSet *FileSet) Get(id FileID) *File {
	return &fileSet.files[id]
}

// Len returns the number of documents in the set.
func (fileSet *FileSet) Len() int {
	return len(fileSet.files)
}

// ReadFile reads a whole document from r into a standalone File with ID 0.
// A read error is returned unchanged so callers can treat it as fatal.
func ReadFile(name string, r io.Reader, encoding string) (*File, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	content, flags, err := prepare(content, encoding)
	if err != nil {
		return nil, err
	}
	return newFile(0, name, content, flags|FileVirtual), nil
}

// NewVirtualFile wraps already normalized content.
func NewVirtualFile(name string, content []byte) *File {
	return newFile(0, name, content, FileVirtual)
}

func prepare(content []byte, encoding string) ([]byte, FileFlags, error) {
	flags := FileFlags(0)
	content, decoded, err := decode(content, encoding)
	if err != nil {
		return nil, 0, err
	}
	if decoded {
		flags |= FileDecoded
	}
	content, hadBOM := removeBOM(content)
	content, hadCRLF := normalizeCRLF(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return content, flags, nil
}

func newFile(id FileID, path string, content []byte, flags FileFlags) *File {
	return &File{
		ID:      id,
		Path:    normalizePath(path),
		Content: content,
		LineIdx: buildLineIndex(content),
		Hash:    sha256.Sum256(content),
		Flags:   flags,
	}
}

// LineCount returns the number of lines in the document. A trailing line
// without a newline counts; an empty document has zero lines.
func (f *File) LineCount() int {
	if len(f.Content) == 0 {
		return 0
	}
	n := len(f.LineIdx)
	if f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

// LineSpan returns the byte span of a 1-based line, excluding its newline.
// Out-of-range lines yield an empty span at the end of the document.
func (f *File) LineSpan(lineNum uint32) Span {
	start, end, ok := f.lineBounds(lineNum)
	if !ok {
		n, err := safecast.Conv[uint32](len(f.Content))
		if err != nil {
			panic(fmt.Errorf("content length overflow: %w", err))
		}
		return Span{File: f.ID, Start: n, End: n}
	}
	return Span{File: f.ID, Start: start, End: end}
}

// GetLine returns the text of a 1-based line, or "" if it does not exist.
func (f *File) GetLine(lineNum uint32) string {
	start, end, ok := f.lineBounds(lineNum)
	if !ok {
		return ""
	}
	return string(f.Content[start:end])
}

func (f *File) lineBounds(lineNum uint32) (start, end uint32, ok bool) {
	if lineNum == 0 {
		return 0, 0, false
	}
	lenLineIdx, err := safecast.Conv[uint32](len(f.LineIdx))
	if err != nil {
		panic(fmt.Errorf("line index length overflow: %w", err))
	}
	lenContent, err := safecast.Conv[uint32](len(f.Content))
	if err != nil {
		panic(fmt.Errorf("content length overflow: %w", err))
	}

	switch {
	case lineNum == 1:
		start = 0
	case lineNum-2 < lenLineIdx:
		start = f.LineIdx[lineNum-2] + 1
	default:
		return 0, 0, false
	}
	if lineNum-1 < lenLineIdx {
		end = f.LineIdx[lineNum-1]
	} else {
		end = lenContent
	}
	if start > lenContent || (start == lenContent && lineNum > 1) {
		return 0, 0, false
	}
	return start, end, true
}

// Position converts a byte offset into a line and column.
func (f *File) Position(off uint32) LineCol {
	return toLineCol(f.LineIdx, off)
}
