package translate

// stagedLine is a handler write waiting for the handler to succeed.
type stagedLine struct {
	region regionKind
	text   string
	line   int
}

// stagingSink is the tag.Sink lent to a handler. Writes become visible in the
// session only after commit.
type stagingSink struct {
	staged []stagedLine
	closed bool
}

func (s *stagingSink) add(k regionKind, text string, sourceLine int) {
	if s.closed {
		return
	}
	for _, part := range splitSinkLine(text) {
		s.staged = append(s.staged, stagedLine{region: k, text: part, line: sourceLine})
	}
}

func (s *stagingSink) AppendDeclaration(line string, sourceLine int) {
	s.add(regionDeclarations, line, sourceLine)
}

func (s *stagingSink) AppendLocalDeclaration(line string, sourceLine int) {
	s.add(regionLocals, line, sourceLine)
}

func (s *stagingSink) AppendContent(line string, sourceLine int) {
	s.add(regionContent, line, sourceLine)
}

func (s *stagingSink) commit(regions *[regionCount]region) {
	for _, l := range s.staged {
		regions[l.region].append(l.text, l.line)
	}
	s.discard()
}

// discard drops staged writes and ignores any made later through a retained
// reference.
func (s *stagingSink) discard() {
	s.staged = nil
	s.closed = true
}
