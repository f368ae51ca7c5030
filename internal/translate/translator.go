package translate

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"weave/internal/diag"
	"weave/internal/dialect"
	"weave/internal/observ"
	"weave/internal/scan"
	"weave/internal/smap"
	"weave/internal/source"
	"weave/internal/tag"

	"go.uber.org/zap"
)

// Unmapped is returned by BackTranslateOffset when no handler can map the offset.
const Unmapped = -1

// Options configures a Translator.
type Options struct {
	Dialect           dialect.Dialect // nil selects Java
	MaxDiagnostics    int             // 0 means unlimited
	Logger            *zap.Logger     // nil disables logging
	ReportUnknownTags bool
	Encoding          string // charset of documents read by Translate; empty is UTF-8
}

// Result is the outcome of one translation.
type Result struct {
	Name      string // unit name
	Source    string // document path
	Text      string
	SourceMap *smap.SourceMap
	Bag       *diag.Bag
	Timing    observ.Report
}

// Translator holds configuration only; every translation gets its own session,
// so Translate may be called concurrently when the registry allows it.
type Translator struct {
	opts Options

	mu       sync.RWMutex
	registry tag.Registry
}

// New creates a translator without a registry; every tag is then unknown.
func New(opts Options) *Translator {
	if opts.Dialect == nil {
		opts.Dialect = dialect.Java{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Translator{opts: opts}
}

// SetRegistry replaces the handler registry.
func (t *Translator) SetRegistry(r tag.Registry) {
	t.mu.Lock()
	t.registry = r
	t.mu.Unlock()
}

// Registry returns the current handler registry.
func (t *Translator) Registry() tag.Registry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.registry
}

// Dialect returns the target dialect.
func (t *Translator) Dialect() dialect.Dialect { return t.opts.Dialect }

// Translate reads the whole document from r and translates it. It fails only
// when r cannot be read or ctx is already done.
func (t *Translator) Translate(ctx context.Context, r io.Reader, name string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := source.ReadFile(name, r, t.opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("translate %s: %w", name, err)
	}
	return t.TranslateFile(ctx, f)
}

// TranslateFile translates an already loaded document.
func (t *Translator) TranslateFile(ctx context.Context, f *source.File) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timer := observ.NewTimer()
	bag := diag.NewBag(t.opts.MaxDiagnostics)
	s := &session{
		file:          f,
		registry:      t.Registry(),
		dialect:       t.opts.Dialect,
		reporter:      diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
		log:           t.opts.Logger,
		reportUnknown: t.opts.ReportUnknownTags,
	}

	idx := timer.Begin("scan")
	scan.Scan(f, s, scan.Options{Reporter: s.reporter})
	timer.End(idx, fmt.Sprintf("%d tags, %d failed", s.tags, s.failures))

	idx = timer.Begin("assemble")
	name := t.opts.Dialect.UnitName(BaseName(f.Path))
	text, sm := s.assemble(name)
	if err := sm.Validate(f.LineCount()); err != nil {
		diag.ReportError(s.reporter, diag.AsmMapOutOfRange, source.Span{File: f.ID}, err.Error()).Emit()
	}
	if len(f.Content) == 0 {
		diag.ReportInfo(s.reporter, diag.AsmEmptyUnit, source.Span{File: f.ID}, "document is empty").Emit()
	}
	timer.End(idx, fmt.Sprintf("%d lines", sm.Len()))

	bag.Sort()
	t.opts.Logger.Debug("translated",
		zap.String("file", f.Path),
		zap.Int("lines", sm.Len()),
		zap.Int("diagnostics", bag.Len()),
	)
	return &Result{
		Name:      name,
		Source:    f.Path,
		Text:      text,
		SourceMap: sm,
		Bag:       bag,
		Timing:    timer.Report(),
	}, nil
}

// BackTranslateOffset maps offset within translatedLine to an offset within
// originalLine. With a tag name the handler is resolved directly; otherwise
// the registry looks for a handler recognising originalLine, then
// translatedLine. It returns Unmapped when no handler is found.
func (t *Translator) BackTranslateOffset(originalLine, translatedLine string, offset int, tagName string) int {
	r := t.Registry()
	if r == nil {
		return Unmapped
	}
	var (
		h  tag.Handler
		ok bool
	)
	if tagName != "" {
		h, ok = r.Resolve(tagName)
	} else if h, ok = r.FindByLine(originalLine); !ok {
		h, ok = r.FindByLine(translatedLine)
	}
	if !ok || h == nil {
		return Unmapped
	}
	return h.BackTranslateOffsetInLine(originalLine, translatedLine, offset)
}

// BaseName strips directory and extension from a document path.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
