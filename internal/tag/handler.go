package tag

import (
	"errors"
	"fmt"
)

// Sink is the write-only surface a handler uses to produce output. A line may
// contain line breaks; every physical line is attributed to sourceLine.
type Sink interface {
	AppendDeclaration(line string, sourceLine int)
	AppendLocalDeclaration(line string, sourceLine int)
	AppendContent(line string, sourceLine int)
}

// Handler processes one occurrence of a custom tag.
type Handler interface {
	AddAttribute(name, value string, line int)
	ProcessEndTag(sink Sink, line int) error
	// BackTranslateOffsetInLine maps offset in translatedLine to an offset in
	// originalLine, or returns -1.
	BackTranslateOffsetInLine(originalLine, translatedLine string, offset int) int
}

// LineMatcher is implemented by handlers that can recognise lines they
// produced or were produced from.
type LineMatcher interface {
	MatchLine(line string) bool
}

// ErrMissingAttribute is wrapped by HandlerError when a required attribute is absent.
var ErrMissingAttribute = errors.New("missing required attribute")

// HandlerError describes a failed ProcessEndTag.
type HandlerError struct {
	Tag  string
	Line int
	Err  error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("%s at line %d: %v", e.Tag, e.Line, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Attributes collects the attributes of a tag occurrence. The zero value is
// ready to use.
type Attributes struct {
	values map[string]string
	order  []string
}

// Set records an attribute; a repeated name keeps the last value.
func (a *Attributes) Set(name, value string) {
	if a.values == nil {
		a.values = make(map[string]string)
	}
	if _, ok := a.values[name]; !ok {
		a.order = append(a.order, name)
	}
	a.values[name] = value
}

// Get returns the value of name.
func (a *Attributes) Get(name string) (string, bool) {
	v, ok := a.values[name]
	return v, ok
}

// Value returns the value of name or "".
func (a *Attributes) Value(name string) string {
	return a.values[name]
}

// Len returns the number of distinct attributes.
func (a *Attributes) Len() int {
	return len(a.order)
}

// Names returns attribute names in first-seen order.
func (a *Attributes) Names() []string {
	return append([]string(nil), a.order...)
}

// Require returns a *HandlerError wrapping ErrMissingAttribute for the first
// name that is absent or empty.
func (a *Attributes) Require(tag string, line int, names ...string) error {
	for _, n := range names {
		if a.values[n] == "" {
			return &HandlerError{Tag: tag, Line: line, Err: fmt.Errorf("%w %q", ErrMissingAttribute, n)}
		}
	}
	return nil
}
