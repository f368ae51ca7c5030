package translate

import (
	"fmt"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"weave/internal/diag"
	"weave/internal/dialect"
	"weave/internal/scan"
	"weave/internal/source"
	"weave/internal/tag"
)

// session is the whole mutable state of one translation.
type session struct {
	file          *source.File
	registry      tag.Registry
	dialect       dialect.Dialect
	reporter      diag.Reporter
	log           *zap.Logger
	reportUnknown bool

	regions [regionCount]region

	active      tag.Handler
	activeName  string
	activeStart scan.Pos

	tags     int
	failures int
}

var _ scan.Events = (*session)(nil)

func (s *session) TagStart(closing bool, name string, pos scan.Pos) {
	s.active, s.activeName, s.activeStart = nil, "", pos
	s.tags++
	var (
		h  tag.Handler
		ok bool
	)
	if s.registry != nil {
		h, ok = s.registry.Resolve(name)
	}
	if !ok {
		if s.reportUnknown && !closing {
			diag.ReportInfo(s.reporter, diag.TagUnknown, s.spanAt(pos), fmt.Sprintf("no handler for <%s>", name)).
				AtLine(pos.Line).Emit()
		}
		return
	}
	s.active, s.activeName = h, name
}

func (s *session) TagAttribute(name, value string, pos scan.Pos) {
	h := s.active
	if h == nil {
		return
	}
	err := guard(func() error {
		h.AddAttribute(name, value, pos.Line)
		return nil
	})
	if err != nil {
		s.handlerFailed(pos.Line, err)
		s.active = nil
	}
}

func (s *session) TagEnd(_ bool, pos scan.Pos) {
	h := s.active
	s.active = nil
	if h == nil {
		return
	}
	sink := &stagingSink{}
	err := guard(func() error {
		return h.ProcessEndTag(sink, pos.Line)
	})
	if err != nil {
		sink.discard()
		s.handlerFailed(pos.Line, err)
		return
	}
	sink.commit(&s.regions)
}

func (s *session) CodeFragment(kind scan.FragmentKind, text string, pos scan.Pos) {
	target := regionContent
	if kind == scan.FragmentDeclaration {
		target = regionDeclarations
	}
	for i, pl := range splitLines(text) {
		s.regions[target].append(pl.text, pos.Line+i)
	}
}

func (s *session) LiteralText(text string, pos scan.Pos) {
	for i, pl := range splitLines(text) {
		stmt := s.dialect.Print(pl.text)
		if pl.terminated {
			stmt = s.dialect.PrintLine(pl.text)
		}
		for _, part := range splitSinkLine(stmt) {
			s.regions[regionContent].append(part, pos.Line+i)
		}
	}
}

func (s *session) handlerFailed(line int, err error) {
	s.failures++
	s.log.Warn("tag handler failed",
		zap.String("file", s.file.Path),
		zap.String("tag", s.activeName),
		zap.Int("line", line),
		zap.Error(err),
	)
	diag.ReportWarning(s.reporter, diag.TagHandlerFailed, s.spanAt(s.activeStart),
		fmt.Sprintf("<%s> produced no output: %v", s.activeName, err)).
		AtLine(line).Emit()
}

func (s *session) spanAt(pos scan.Pos) source.Span {
	off, err := safecast.Conv[uint32](pos.Offset)
	if err != nil {
		return source.Span{File: s.file.ID}
	}
	return source.Span{File: s.file.ID, Start: off, End: off}
}

// guard runs fn and turns a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
