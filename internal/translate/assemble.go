package translate

import (
	"strings"

	"weave/internal/smap"
)

// assembler writes physical lines and records one map entry per line.
type assembler struct {
	b     strings.Builder
	lines []int
}

func (a *assembler) write(text string, sourceLine int) {
	for _, part := range splitSinkLine(text) {
		a.b.WriteString(part)
		a.b.WriteByte('\n')
		a.lines = append(a.lines, sourceLine)
	}
}

// writeRegion copies a region with its own provenance.
func (a *assembler) writeRegion(r *region) {
	for i, text := range r.lines {
		a.write(text, r.provenance[i])
	}
}

// inherit writes a synthetic line mapped like the previous one.
func (a *assembler) inherit(text string) {
	a.write(text, a.lines[len(a.lines)-1])
}

// assemble builds the final unit. Synthetic lines get the mapping of the line
// before them, except the unit lines which map to the first real provenance.
func (s *session) assemble(name string) (string, *smap.SourceMap) {
	open := s.firstProvenance()
	a := &assembler{}

	a.write(s.dialect.UnitOpen(name), open)
	a.inherit("")
	a.writeRegion(&s.regions[regionDeclarations])
	a.inherit(s.dialect.BodyOpen())
	if s.regions[regionLocals].len() > 0 {
		a.writeRegion(&s.regions[regionLocals])
	}
	a.writeRegion(&s.regions[regionContent])
	a.inherit(s.dialect.BodyClose())
	a.write(s.dialect.UnitClose(name), open)

	return a.b.String(), smap.New(a.lines)
}

func (s *session) firstProvenance() int {
	for k := range regionCount {
		if r := &s.regions[k]; r.len() > 0 {
			return r.provenance[0]
		}
	}
	return 1
}
