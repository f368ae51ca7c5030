package scan

import (
	"bytes"
	"fmt"

	"fortio.org/safecast"

	"weave/internal/source"
)

// Cursor is a byte position in a document that keeps track of the current line.
type Cursor struct {
	File *source.File
	Off  int
	Line int
}

// NewCursor creates a cursor at the start of f.
func NewCursor(f *source.File) Cursor {
	return Cursor{File: f, Off: 0, Line: 1}
}

// EOF reports whether the end of the document has been reached.
func (c *Cursor) EOF() bool {
	return c.Off >= len(c.File.Content)
}

// Peek returns the current byte or 0 at EOF.
func (c *Cursor) Peek() byte {
	if c.EOF() {
		return 0
	}
	return c.File.Content[c.Off]
}

// PeekAt returns the byte n positions ahead or 0 past EOF.
func (c *Cursor) PeekAt(n int) byte {
	if c.Off+n >= len(c.File.Content) {
		return 0
	}
	return c.File.Content[c.Off+n]
}

// HasPrefix reports whether the remaining input starts with p.
func (c *Cursor) HasPrefix(p string) bool {
	return bytes.HasPrefix(c.File.Content[c.Off:], []byte(p))
}

// Bump advances by one byte and returns it.
func (c *Cursor) Bump() byte {
	if c.EOF() {
		return 0
	}
	b := c.File.Content[c.Off]
	c.Off++
	if b == '\n' {
		c.Line++
	}
	return b
}

// Advance moves n bytes forward, stopping at EOF.
func (c *Cursor) Advance(n int) {
	for range n {
		if c.EOF() {
			return
		}
		c.Bump()
	}
}

// SkipTo moves to the next occurrence of end and past it.
// It reports false and stops at EOF if end does not occur.
func (c *Cursor) SkipTo(end string) (body string, ok bool) {
	rest := c.File.Content[c.Off:]
	i := bytes.Index(rest, []byte(end))
	if i < 0 {
		body = string(rest)
		c.Advance(len(rest))
		return body, false
	}
	body = string(rest[:i])
	c.Advance(i + len(end))
	return body, true
}

// Pos returns the current position.
func (c *Cursor) Pos() Pos {
	return Pos{Offset: c.Off, Line: c.Line}
}

// SpanFrom builds a span from start to the current offset.
func (c *Cursor) SpanFrom(start int) source.Span {
	s, err := safecast.Conv[uint32](start)
	if err != nil {
		panic(fmt.Errorf("span start overflow: %w", err))
	}
	e, err := safecast.Conv[uint32](c.Off)
	if err != nil {
		panic(fmt.Errorf("span end overflow: %w", err))
	}
	return source.Span{File: c.File.ID, Start: s, End: e}
}
