package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"weave/internal/diag"
	"weave/internal/source"
)

const tabWidth = 4

type palette struct {
	err, warn, info, gutter, caret, note, path func(a ...any) string
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
		note:   mk(color.FgMagenta),
		path:   mk(color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) func(a ...any) string {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty writes diagnostics in a human-readable form, in bag order (call
// bag.Sort first). Each diagnostic prints as
//
//	<path>:<line>:<col>: <SEV> <CODE>: <message>
//
// followed by the source line with a ^~~~ underline and, with ShowNotes,
// its notes.
func Pretty(w io.Writer, bag *diag.Bag, files Files, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		f := lookup(files, d.Primary.File)
		start, end := location(f, d)
		sev := p.severity(d.Severity)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			p.path(formatPath(f, opts.PathMode, opts.BaseDir)), start.Line, start.Col,
			sev(d.Severity.String()), d.Code.ID(), d.Message)
		if f != nil && start.Line > 0 {
			writeExcerpt(w, f, start, end, int(opts.Context), p)
		}
		if opts.ShowNotes {
			for _, n := range d.Notes {
				nf := lookup(files, n.Span.File)
				pos := source.LineCol{}
				if nf != nil {
					pos = nf.Position(n.Span.Start)
				}
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", p.note("note:"),
					formatPath(nf, opts.PathMode, opts.BaseDir), pos.Line, pos.Col, n.Msg)
			}
		}
	}
}

func writeExcerpt(w io.Writer, f *source.File, start, end source.LineCol, context int, p palette) {
	if context < 0 {
		context = 0
	}
	first := max(1, int(start.Line)-context)
	last := min(f.LineCount(), int(start.Line)+context)
	width := len(strconv.Itoa(max(last, 1)))
	for ln := first; ln <= last; ln++ {
		text := f.GetLine(uint32(ln))
		fmt.Fprintf(w, " %s %s\n", p.gutter(fmt.Sprintf("%*d |", width, ln)), expandTabs(text))
		if ln != int(start.Line) {
			continue
		}
		endCol := int(end.Col)
		if end.Line != start.Line {
			endCol = len(text) + 1
		}
		pad, span := caretColumns(text, int(start.Col), endCol)
		fmt.Fprintf(w, " %s %s%s\n", p.gutter(strings.Repeat(" ", width)+" |"),
			strings.Repeat(" ", pad), p.caret("^"+strings.Repeat("~", max(span-1, 0))))
	}
}

// caretColumns converts byte columns into display columns so the underline
// lines up under wide runes and tabs.
func caretColumns(text string, startCol, endCol int) (pad, span int) {
	startByte := min(max(startCol-1, 0), len(text))
	endByte := min(max(endCol-1, startByte), len(text))
	pad = runewidth.StringWidth(expandTabs(text[:startByte]))
	span = runewidth.StringWidth(expandTabs(text[:endByte])) - pad
	return pad, max(span, 1)
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", tabWidth))
}

// Summary writes a one-line count such as "2 errors, 1 warning".
func Summary(w io.Writer, bag *diag.Bag, colored bool) {
	var errs, warns int
	if bag != nil {
		for _, d := range bag.Items() {
			switch d.Severity {
			case diag.SevError:
				errs++
			case diag.SevWarning:
				warns++
			}
		}
	}
	p := newPalette(colored)
	fmt.Fprintf(w, "%s, %s\n", p.err(plural(errs, "error")), p.warn(plural(warns, "warning")))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return strconv.Itoa(n) + " " + word + "s"
}
