package smap

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LineInfo is one *L entry: original lines InStart..InStart+Repeat-1 each
// produce OutIncrement generated lines starting at OutStart.
type LineInfo struct {
	InStart      int
	Repeat       int
	OutStart     int
	OutIncrement int
}

func (li LineInfo) String(withFile bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", li.InStart)
	if withFile {
		b.WriteString("#1")
	}
	if li.Repeat != 1 {
		fmt.Fprintf(&b, ",%d", li.Repeat)
	}
	fmt.Fprintf(&b, ":%d", li.OutStart)
	if li.OutIncrement != 1 {
		fmt.Fprintf(&b, ",%d", li.OutIncrement)
	}
	return b.String()
}

// LineInfos compresses the map into runs. Consecutive generated lines from
// consecutive original lines form one entry; several generated lines from the
// same original line form another.
func (m *SourceMap) LineInfos() []LineInfo {
	var out []LineInfo
	n := m.Len()
	for i := 0; i < n; {
		orig := m.lines[i]
		j := i + 1
		if j < n && m.lines[j] == orig {
			for j < n && m.lines[j] == orig {
				j++
			}
			out = append(out, LineInfo{InStart: orig, Repeat: 1, OutStart: i + 1, OutIncrement: j - i})
		} else {
			for j < n && m.lines[j] == m.lines[j-1]+1 && (j+1 >= n || m.lines[j+1] != m.lines[j]) {
				j++
			}
			out = append(out, LineInfo{InStart: orig, Repeat: j - i, OutStart: i + 1, OutIncrement: 1})
		}
		i = j
	}
	return out
}

// WriteStratum writes a SMAP section for the map. stratum defaults to "JSP".
func (m *SourceMap) WriteStratum(w io.Writer, generatedName, sourceName, stratum string) error {
	if stratum == "" {
		stratum = "JSP"
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "SMAP\n%s\n%s\n*S %s\n*F\n1 %s\n*L\n", generatedName, stratum, stratum, sourceName)
	for i, li := range m.LineInfos() {
		fmt.Fprintln(bw, li.String(i == 0))
	}
	fmt.Fprintln(bw, "*E")
	return bw.Flush()
}
