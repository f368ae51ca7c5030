package diagfmt

import (
	"path/filepath"
	"strings"

	"fortio.org/safecast"

	"weave/internal/diag"
	"weave/internal/source"
)

// Files resolves the documents diagnostics point into. *source.FileSet
// implements it; SingleFile adapts a standalone document.
type Files interface {
	Get(id source.FileID) *source.File
}

// SingleFile serves one document regardless of the requested ID, which is
// what a standalone translation produces.
type SingleFile struct{ File *source.File }

func (s SingleFile) Get(source.FileID) *source.File { return s.File }

const autoPathLimit = 48

func lookup(files Files, id source.FileID) *source.File {
	if files == nil {
		return nil
	}
	if fs, ok := files.(*source.FileSet); ok && int(id) >= fs.Len() {
		return nil
	}
	return files.Get(id)
}

func formatPath(f *source.File, mode PathMode, baseDir string) string {
	if f == nil {
		return "<unknown>"
	}
	switch mode {
	case PathModeAbsolute:
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
	case PathModeRelative:
		if baseDir == "" {
			baseDir = "."
		}
		if rel, err := source.RelativePath(f.Path, baseDir); err == nil {
			return rel
		}
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeAuto:
		if len(f.Path) > autoPathLimit && strings.HasPrefix(f.Path, "/") {
			return filepath.Base(f.Path)
		}
	}
	return f.Path
}

// location returns the start and end of d within f. Diagnostics raised from
// tag events only know their line; they cover that line's text.
func location(f *source.File, d diag.Diagnostic) (start, end source.LineCol) {
	if f == nil {
		return source.LineCol{Line: d.Line, Col: 1}, source.LineCol{Line: d.Line, Col: 1}
	}
	sp := d.Primary
	if sp.Empty() && sp.Start == 0 && d.Line > 0 {
		sp = f.LineSpan(d.Line)
		text := f.GetLine(d.Line)
		if indent, err := safecast.Conv[uint32](len(text) - len(strings.TrimLeft(text, " \t"))); err == nil {
			sp.Start += indent
		}
	}
	return f.Position(sp.Start), f.Position(sp.End)
}
