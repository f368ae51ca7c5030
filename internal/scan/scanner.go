package scan

import (
	"weave/internal/diag"
	"weave/internal/source"
)

// Options configures a Scanner.
type Options struct {
	Reporter diag.Reporter // may be nil; problems are then dropped but scanning goes on
}

// Scanner produces events for one document.
type Scanner struct {
	file   *source.File
	cursor Cursor
	opts   Options

	textOff  int
	textLine int
}

type attribute struct {
	name, value string
	pos         Pos
}

// New creates a scanner over f.
func New(f *source.File, opts Options) *Scanner {
	return &Scanner{
		file:     f,
		cursor:   NewCursor(f),
		opts:     opts,
		textLine: 1,
	}
}

// Scan runs the scanner to the end of the document, delivering events to ev.
func Scan(f *source.File, ev Events, opts Options) {
	New(f, opts).Run(ev)
}

// Run consumes the whole document.
func (s *Scanner) Run(ev Events) {
	c := &s.cursor
	for !c.EOF() {
		switch {
		case c.HasPrefix("<%--"):
			s.flushText(ev)
			s.scanComment()
		case c.HasPrefix("<%"):
			s.flushText(ev)
			s.scanScript(ev)
		case c.Peek() == '<' && s.atCustomTag():
			s.flushText(ev)
			s.scanTag(ev)
		default:
			c.Bump()
			continue
		}
		s.textOff, s.textLine = c.Off, c.Line
	}
	s.flushText(ev)
}

func (s *Scanner) flushText(ev Events) {
	if s.cursor.Off > s.textOff {
		text := string(s.file.Content[s.textOff:s.cursor.Off])
		ev.LiteralText(text, Pos{Offset: s.textOff, Line: s.textLine})
	}
	s.textOff, s.textLine = s.cursor.Off, s.cursor.Line
}

func (s *Scanner) scanComment() {
	c := &s.cursor
	start, line := c.Off, c.Line
	c.Advance(len("<%--"))
	if _, ok := c.SkipTo("--%>"); !ok {
		s.report(diag.ScanUnterminatedComment, c.SpanFrom(start), line, "comment is not closed with --%>")
	}
}

func (s *Scanner) scanScript(ev Events) {
	c := &s.cursor
	start := c.Pos()
	c.Advance(len("<%"))

	kind := FragmentScriptlet
	switch c.Peek() {
	case '@':
		c.Bump()
		s.scanDirective(ev, start)
		return
	case '!':
		kind = FragmentDeclaration
		c.Bump()
	case '=':
		kind = FragmentExpression
		c.Bump()
	}

	body, ok := c.SkipTo("%>")
	if !ok {
		s.report(diag.ScanUnterminatedScript, c.SpanFrom(start.Offset), start.Line, "script block is not closed with %>")
		return
	}
	if body == "" {
		return
	}
	ev.CodeFragment(kind, body, start)
}

// scanDirective handles <%@ name attr="v" %>, reported as the tag "@name".
func (s *Scanner) scanDirective(ev Events, start Pos) {
	c := &s.cursor
	s.skipSpace()
	name := s.readName()
	attrs, end, ok := s.scanAttributes("%>")
	if !ok {
		s.report(diag.ScanUnterminatedScript, c.SpanFrom(start.Offset), start.Line, "directive is not closed with %>")
		return
	}
	if name == "" {
		s.report(diag.ScanBadAttribute, c.SpanFrom(start.Offset), start.Line, "directive without a name")
		return
	}
	ev.TagStart(false, "@"+name, start)
	for _, a := range attrs {
		ev.TagAttribute(a.name, a.value, a.pos)
	}
	ev.TagEnd(true, end)
}

// atCustomTag reports whether the cursor is at <prefix:name or </prefix:name.
func (s *Scanner) atCustomTag() bool {
	c := &s.cursor
	i := 1
	if c.PeekAt(i) == '/' {
		i++
	}
	if !isNameStart(c.PeekAt(i)) {
		return false
	}
	for ; isNameByte(c.PeekAt(i)); i++ {
		if c.PeekAt(i) == ':' {
			return true
		}
	}
	return false
}

func (s *Scanner) scanTag(ev Events) {
	c := &s.cursor
	start := c.Pos()
	c.Bump()
	closing := false
	if c.Peek() == '/' {
		closing = true
		c.Bump()
	}
	name := s.readName()
	attrs, end, ok := s.scanAttributes("/>", ">")
	if !ok {
		s.report(diag.ScanUnterminatedTag, c.SpanFrom(start.Offset), start.Line, "tag <"+name+"> is not closed")
		return
	}
	selfClosing := s.file.Content[c.Off-2] == '/' && s.file.Content[c.Off-1] == '>'
	ev.TagStart(closing, name, start)
	for _, a := range attrs {
		ev.TagAttribute(a.name, a.value, a.pos)
	}
	ev.TagEnd(selfClosing, end)
}

// scanAttributes reads attributes up to and including one of the terminators.
// The returned position is where the terminator starts.
func (s *Scanner) scanAttributes(terminators ...string) ([]attribute, Pos, bool) {
	c := &s.cursor
	var attrs []attribute
	for {
		s.skipSpace()
		if c.EOF() {
			return nil, c.Pos(), false
		}
		for _, t := range terminators {
			if c.HasPrefix(t) {
				end := c.Pos()
				c.Advance(len(t))
				return attrs, end, true
			}
		}
		if !isNameStart(c.Peek()) {
			bad := c.Off
			line := c.Line
			c.Bump()
			s.report(diag.ScanBadAttribute, c.SpanFrom(bad), line, "unexpected character in attribute list")
			continue
		}

		pos := c.Pos()
		name := s.readName()
		s.skipSpace()
		if c.Peek() != '=' {
			attrs = append(attrs, attribute{name: name, pos: pos})
			continue
		}
		c.Bump()
		s.skipSpace()
		value, ok := s.readValue()
		if !ok {
			return nil, c.Pos(), false
		}
		attrs = append(attrs, attribute{name: name, value: value, pos: pos})
	}
}

func (s *Scanner) readName() string {
	c := &s.cursor
	start := c.Off
	if !isNameStart(c.Peek()) {
		return ""
	}
	for isNameByte(c.Peek()) {
		c.Bump()
	}
	return string(s.file.Content[start:c.Off])
}

func (s *Scanner) readValue() (string, bool) {
	c := &s.cursor
	switch q := c.Peek(); q {
	case '"', '\'':
		c.Bump()
		return c.SkipTo(string(q))
	}
	start := c.Off
	for !c.EOF() {
		b := c.Peek()
		if isSpace(b) || b == '>' || ((b == '/' || b == '%') && c.PeekAt(1) == '>') {
			break
		}
		c.Bump()
	}
	return string(s.file.Content[start:c.Off]), true
}

func (s *Scanner) skipSpace() {
	for isSpace(s.cursor.Peek()) {
		s.cursor.Bump()
	}
}

func (s *Scanner) report(code diag.Code, sp source.Span, line int, msg string) {
	if s.opts.Reporter == nil {
		return
	}
	sev := diag.SevError
	if code == diag.ScanBadAttribute {
		sev = diag.SevWarning
	}
	diag.NewReportBuilder(s.opts.Reporter, sev, code, sp, msg).AtLine(line).Emit()
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func isNameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isNameByte(b byte) bool {
	return isNameStart(b) || (b >= '0' && b <= '9') || b == ':' || b == '-' || b == '.'
}
