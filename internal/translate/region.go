package translate

import "strings"

// regionKind selects one of the three buffered regions.
type regionKind uint8

const (
	regionDeclarations regionKind = iota
	regionLocals
	regionContent

	regionCount
)

// region keeps emitted lines and, in parallel, their document lines.
type region struct {
	lines      []string
	provenance []int
}

func (r *region) append(text string, sourceLine int) {
	r.lines = append(r.lines, text)
	r.provenance = append(r.provenance, sourceLine)
}

func (r *region) len() int { return len(r.lines) }

// physicalLine is one piece of split text and whether a newline ended it.
type physicalLine struct {
	text       string
	terminated bool
}

// splitLines cuts text at every newline. A trailing piece without a newline is
// kept only when non-empty, so "a\n" yields one line and "" yields none.
func splitLines(text string) []physicalLine {
	var out []physicalLine
	for text != "" {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			out = append(out, physicalLine{text: text})
			break
		}
		out = append(out, physicalLine{text: text[:i], terminated: true})
		text = text[i+1:]
	}
	return out
}

// splitSinkLine splits handler output; an empty string is one blank line.
func splitSinkLine(text string) []string {
	parts := strings.Split(text, "\n")
	if len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}
