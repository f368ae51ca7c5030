package jsp

import (
	"fmt"
	"regexp"

	"weave/internal/dialect"
	"weave/internal/tag"
)

const (
	UseBean     = "jsp:useBean"
	GetProperty = "jsp:getProperty"
	SetProperty = "jsp:setProperty"
	Include     = "jsp:include"
)

// Register adds the jsp:* handlers emitting code for d.
func Register(lib *tag.Library, d dialect.Dialect) error {
	if d == nil {
		return fmt.Errorf("jsp: nil dialect")
	}
	patterns := linePatterns(d.Kind())
	specs := []struct {
		name    string
		produce func(h *handler, sink tag.Sink, line int) error
	}{
		{UseBean, produceUseBean},
		{GetProperty, produceGetProperty},
		{SetProperty, produceSetProperty},
		{Include, produceInclude},
	}
	for _, s := range specs {
		name, produce, re := s.name, s.produce, patterns[s.name]
		err := lib.Register(name, func() tag.Handler {
			return &handler{name: name, d: d, produce: produce, line: re}
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// NewLibrary returns a library holding only the jsp:* handlers.
func NewLibrary(d dialect.Dialect) (*tag.Library, error) {
	lib := tag.NewLibrary()
	if err := Register(lib, d); err != nil {
		return nil, err
	}
	return lib, nil
}

type handler struct {
	tag.Attributes
	name    string
	d       dialect.Dialect
	produce func(h *handler, sink tag.Sink, line int) error
	line    *regexp.Regexp
}

func (h *handler) AddAttribute(name, value string, _ int) {
	h.Set(name, value)
}

// ProcessEndTag emits nothing for an occurrence without attributes, such as
// the closing half of a start/end pair.
func (h *handler) ProcessEndTag(sink tag.Sink, line int) error {
	if h.Len() == 0 {
		return nil
	}
	return h.produce(h, sink, line)
}

func (h *handler) BackTranslateOffsetInLine(originalLine, translatedLine string, offset int) int {
	return backTranslate(originalLine, translatedLine, offset)
}

func (h *handler) MatchLine(line string) bool {
	return h.line != nil && h.line.MatchString(line)
}

func produceUseBean(h *handler, sink tag.Sink, line int) error {
	if err := h.Require(h.name, line, "id", "class"); err != nil {
		return err
	}
	sink.AppendLocalDeclaration(h.d.NewObject(h.Value("type"), h.Value("class"), h.Value("id")), line)
	return nil
}

func produceGetProperty(h *handler, sink tag.Sink, line int) error {
	if err := h.Require(h.name, line, "name", "property"); err != nil {
		return err
	}
	sink.AppendContent(h.d.PrintExpr(h.d.GetProperty(h.Value("name"), h.Value("property"))), line)
	return nil
}

func produceSetProperty(h *handler, sink tag.Sink, line int) error {
	if err := h.Require(h.name, line, "name", "property"); err != nil {
		return err
	}
	value, ok := h.Get("value")
	if !ok {
		return &tag.HandlerError{Tag: h.name, Line: line, Err: fmt.Errorf("%w %q", tag.ErrMissingAttribute, "value")}
	}
	sink.AppendContent(h.d.SetProperty(h.Value("name"), h.Value("property"), value), line)
	return nil
}

func produceInclude(h *handler, sink tag.Sink, line int) error {
	if err := h.Require(h.name, line, "page"); err != nil {
		return err
	}
	sink.AppendContent(h.d.Include(h.Value("page")), line)
	return nil
}

// linePatterns recognise generated statements of each handler.
func linePatterns(kind dialect.DialectKind) map[string]*regexp.Regexp {
	switch kind {
	case dialect.DialectGo:
		return map[string]*regexp.Regexp{
			UseBean:     regexp.MustCompile(`^\s*\w+ := &[\w.]+\{\}\s*$`),
			GetProperty: regexp.MustCompile(`fmt\.Fprint\(out, \w+\.\w+\)`),
			SetProperty: regexp.MustCompile(`^\s*\w+\.\w+ = ".*"\s*$`),
			Include:     regexp.MustCompile(`^\s*Include\(out, ".*"\)\s*$`),
		}
	default:
		return map[string]*regexp.Regexp{
			UseBean:     regexp.MustCompile(`^\s*[\w.<>]+\s+\w+\s*=\s*new\s+[\w.]+\(\);\s*$`),
			GetProperty: regexp.MustCompile(`System\.out\.print\(\w+\.get\w+\(\)\);`),
			SetProperty: regexp.MustCompile(`^\s*\w+\.set\w+\(".*"\);\s*$`),
			Include:     regexp.MustCompile(`^\s*include\(".*"\);\s*$`),
		}
	}
}
