package jsp

import (
	"regexp"
	"strings"
)

var attrValueRe = regexp.MustCompile(`[\w:.\-]+\s*=\s*(?:"([^"]*)"|'([^']*)')`)

// backTranslate finds the word or string literal under offset in translated and
// returns the position of the same text inside an attribute value of original.
// Accessors like getTotal or Total map onto the value "total".
func backTranslate(original, translated string, offset int) int {
	if offset < 0 || offset >= len(translated) {
		return -1
	}
	word, rel := wordAt(translated, offset)
	if word == "" {
		return -1
	}
	for _, m := range attrValueRe.FindAllStringSubmatchIndex(original, -1) {
		start, end := m[2], m[3]
		if start < 0 {
			start, end = m[4], m[5]
		}
		value := original[start:end]
		if value == "" {
			continue
		}
		if i := strings.Index(value, word); i >= 0 {
			return start + i + rel
		}
		if stem, cut := accessorStem(word); strings.EqualFold(stem, value) {
			return start + clamp(rel-cut, 0, len(value)-1)
		}
	}
	return -1
}

// wordAt returns the string literal content or identifier containing offset
// and the offset relative to its start.
func wordAt(line string, offset int) (string, int) {
	if start, end, ok := literalAt(line, offset); ok {
		return line[start:end], offset - start
	}
	if !isWordByte(line[offset]) {
		return "", 0
	}
	start, end := offset, offset
	for start > 0 && isWordByte(line[start-1]) {
		start--
	}
	for end < len(line) && isWordByte(line[end]) {
		end++
	}
	return line[start:end], offset - start
}

// literalAt finds the double-quoted literal whose content contains offset.
func literalAt(line string, offset int) (start, end int, ok bool) {
	open := -1
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			if open >= 0 {
				i++
			}
		case '"':
			if open < 0 {
				open = i + 1
				continue
			}
			if offset >= open && offset < i {
				return open, i, true
			}
			open = -1
		}
	}
	return 0, 0, false
}

func accessorStem(word string) (string, int) {
	for _, p := range []string{"get", "set"} {
		if len(word) > len(p) && strings.HasPrefix(word, p) {
			return word[len(p):], len(p)
		}
	}
	return word, 0
}

func isWordByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
