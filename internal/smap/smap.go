// Package smap holds the generated-line to original-line map of a translated
// unit and renders it as a JSR-045 SMAP stratum.
package smap

import (
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// SourceMap maps 1-based generated lines to 1-based original lines.
// It is immutable once built.
type SourceMap struct {
	lines []int
}

// New copies lines; lines[i] is the original line of generated line i+1.
func New(lines []int) *SourceMap {
	return &SourceMap{lines: slices.Clone(lines)}
}

// FromCompact rebuilds a map stored with Compact.
func FromCompact(lines []uint32) *SourceMap {
	out := make([]int, len(lines))
	for i, l := range lines {
		out[i] = int(l)
	}
	return &SourceMap{lines: out}
}

// Compact returns the map as uint32 values for serialisation.
func (m *SourceMap) Compact() ([]uint32, error) {
	out := make([]uint32, len(m.lines))
	for i, l := range m.lines {
		v, err := safecast.Conv[uint32](l)
		if err != nil {
			return nil, fmt.Errorf("generated line %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

// Len returns the number of generated lines.
func (m *SourceMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.lines)
}

// Original returns the original line of a 1-based generated line.
func (m *SourceMap) Original(generated int) (int, bool) {
	if generated < 1 || generated > m.Len() {
		return 0, false
	}
	return m.lines[generated-1], true
}

// Generated returns every generated line mapped to original, ascending.
func (m *SourceMap) Generated(original int) []int {
	var out []int
	for i, l := range m.lines {
		if l == original {
			out = append(out, i+1)
		}
	}
	return out
}

// Lines returns a copy of the map.
func (m *SourceMap) Lines() []int {
	if m == nil {
		return nil
	}
	return slices.Clone(m.lines)
}

// MaxOriginal returns the largest original line referenced, or 0.
func (m *SourceMap) MaxOriginal() int {
	if m.Len() == 0 {
		return 0
	}
	return slices.Max(m.lines)
}

// Validate checks every entry lies in [1, maxOriginal]; a maxOriginal below 1
// is treated as 1.
func (m *SourceMap) Validate(maxOriginal int) error {
	maxOriginal = max(maxOriginal, 1)
	for i, l := range m.lines {
		if l < 1 || l > maxOriginal {
			return fmt.Errorf("generated line %d maps to %d, outside [1, %d]", i+1, l, maxOriginal)
		}
	}
	return nil
}
