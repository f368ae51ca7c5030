// Package testkit holds checks shared by tests of several packages.
package testkit

import (
	"fmt"
	"strings"

	"weave/internal/source"
	"weave/internal/translate"
)

// CheckResultInvariants verifies the source map of a translation:
// 1) one entry per physical line of Text
// 2) Text is empty or ends with a newline
// 3) every entry lies in [1, max(1, lines of the document)]
// 4) the first and last generated lines share a mapping
func CheckResultInvariants(res *translate.Result, doc *source.File) error {
	if res == nil || res.SourceMap == nil {
		return fmt.Errorf("nil result or source map")
	}
	physical := strings.Count(res.Text, "\n")
	if n := res.SourceMap.Len(); n != physical {
		return fmt.Errorf("source map has %d entries for %d lines", n, physical)
	}
	if res.Text != "" && !strings.HasSuffix(res.Text, "\n") {
		return fmt.Errorf("text does not end with a newline")
	}
	limit := 1
	if doc != nil {
		limit = max(limit, doc.LineCount())
	}
	if err := res.SourceMap.Validate(limit); err != nil {
		return err
	}
	if n := res.SourceMap.Len(); n > 0 {
		first, _ := res.SourceMap.Original(1)
		last, _ := res.SourceMap.Original(n)
		if first != last {
			return fmt.Errorf("unit close maps to %d, unit open to %d", last, first)
		}
	}
	return nil
}
