package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"weave/internal/diag"
	"weave/internal/source"
)

const page = "<html>\n\t<jsp:useBean id=\"broken\"/>\nTotal: 日本 <% x\n"

func pageBag(t *testing.T, fs *source.FileSet, id source.FileID) *diag.Bag {
	t.Helper()
	bag := diag.NewBag(10)
	r := diag.BagReporter{Bag: bag}
	diag.ReportWarning(r, diag.TagHandlerFailed, source.Span{File: id}, "jsp:useBean: missing attribute class").AtLine(2).Emit()
	start := uint32(strings.Index(page, "<%"))
	diag.ReportError(r, diag.ScanUnterminatedScript, source.Span{File: id, Start: start, End: start + 2}, "unterminated scriptlet").Emit()
	bag.Sort()
	return bag
}

// TestPathModes checks every path display mode.
func TestPathModes(t *testing.T) {
	fs := source.NewFileSetWithBase("/home/user/site")
	id := fs.AddVirtual("/home/user/site/pages/index.jsp", []byte(page))
	bag := pageBag(t, fs, id)

	tests := []struct {
		name     string
		mode     PathMode
		base     string
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "", "/home/user/site/pages/index.jsp:"},
		{"Relative path", PathModeRelative, "/home/user/site", "pages/index.jsp:"},
		{"Basename only", PathModeBasename, "", "index.jsp:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode, BaseDir: tt.base})
			output := buf.String()
			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"WARNING TAG2001", "ERROR SCN1001", "unterminated scriptlet"} {
				if !strings.Contains(output, want) {
					t.Errorf("expected %q in output:\n%s", want, output)
				}
			}
		})
	}
}

func TestPathModeAuto(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"index.jsp", "index.jsp:1:1"},
		{"/very/long/absolute/path/to/some/nested/directory/index.jsp", "\nindex.jsp:1:1"},
	}
	for _, tt := range tests {
		fs := source.NewFileSet()
		id := fs.AddVirtual(tt.path, []byte("x\n"))
		bag := diag.NewBag(1)
		bag.Add(diag.New(diag.SevInfo, diag.AsmEmptyUnit, source.Span{File: id}, "info"))

		var buf bytes.Buffer
		Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeAuto})
		if !strings.Contains("\n"+buf.String(), tt.expected) {
			t.Errorf("%s: expected %q, got:\n%s", tt.path, tt.expected, buf.String())
		}
	}
}

// TestPrettyLineDiagnostic covers diagnostics that only carry a line: the
// underline starts after the indentation and tabs are expanded.
func TestPrettyLineDiagnostic(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("index.jsp", []byte(page))
	var buf bytes.Buffer
	Pretty(&buf, pageBag(t, fs, id), fs, PrettyOpts{PathMode: PathModeBasename})

	output := buf.String()
	if !strings.Contains(output, "index.jsp:2:2: WARNING TAG2001") {
		t.Fatalf("expected line-based location, got:\n%s", output)
	}
	want := " 2 |     <jsp:useBean id=\"broken\"/>\n   |     ^" + strings.Repeat("~", len(`<jsp:useBean id="broken"/>`)-1) + "\n"
	if !strings.Contains(output, want) {
		t.Errorf("unexpected excerpt, want:\n%s\ngot:\n%s", want, output)
	}
}

func TestPrettyWideRunes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("index.jsp", []byte(page))
	var buf bytes.Buffer
	Pretty(&buf, pageBag(t, fs, id), fs, PrettyOpts{PathMode: PathModeBasename})

	// "Total: " is 7 columns and each CJK rune is 2 columns wide.
	want := " 3 | Total: 日本 <% x\n   | " + strings.Repeat(" ", 12) + "^~\n"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("caret misaligned, want:\n%s\ngot:\n%s", want, buf.String())
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("index.jsp", []byte(page))
	bag := diag.NewBag(2)
	d := diag.New(diag.SevError, diag.ScanUnterminatedTag, source.Span{File: id, Start: 8, End: 20}, "unterminated tag")
	d = d.WithNote(source.Span{File: id, Start: 0, End: 6}, "enclosing element")
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, Context: 1, ShowNotes: true})
	output := buf.String()
	for _, want := range []string{" 1 | <html>", " 3 | Total:", "note: index.jsp:1:1: enclosing element"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestPrettyWithoutFile(t *testing.T) {
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevWarning, diag.IOCacheError, source.Span{File: 7}, "cache unavailable"))
	var buf bytes.Buffer
	Pretty(&buf, bag, source.NewFileSet(), PrettyOpts{})
	if got := buf.String(); got != "<unknown>:0:1: WARNING IO4002: cache unavailable\n" {
		t.Errorf("unexpected output %q", got)
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("index.jsp", []byte(page))
	var plain, colored bytes.Buffer
	Pretty(&plain, pageBag(t, fs, id), fs, PrettyOpts{})
	Pretty(&colored, pageBag(t, fs, id), fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Error("plain output contains escape codes")
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Error("colored output has no escape codes")
	}
}

func TestSummary(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.AddVirtual("index.jsp", []byte(page))
	var buf bytes.Buffer
	Summary(&buf, pageBag(t, fs, id), false)
	if got := buf.String(); got != "1 error, 1 warning\n" {
		t.Errorf("Summary = %q", got)
	}
	buf.Reset()
	Summary(&buf, nil, false)
	if got := buf.String(); got != "0 errors, 0 warnings\n" {
		t.Errorf("Summary(nil) = %q", got)
	}
}

func TestSingleFile(t *testing.T) {
	f := source.NewVirtualFile("page.jsp", []byte(page))
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevError, diag.ScanUnterminatedScript, source.Span{File: 3, Start: 0, End: 6}, "x"))
	var buf bytes.Buffer
	Pretty(&buf, bag, SingleFile{File: f}, PrettyOpts{})
	if !strings.HasPrefix(buf.String(), "page.jsp:1:1: ERROR") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}
