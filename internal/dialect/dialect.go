package dialect

import (
	"fmt"
	"strings"
	"unicode"
)

// DialectKind identifies a target language.
type DialectKind uint8

const (
	DialectUnknown DialectKind = iota
	DialectJava
	DialectGo

	dialectKindCount
)

func (k DialectKind) String() string {
	switch k {
	case DialectJava:
		return "java"
	case DialectGo:
		return "go"
	default:
		return "unknown"
	}
}

func (k DialectKind) GoString() string {
	return fmt.Sprintf("DialectKind(%s)", k.String())
}

// Dialect produces target-language text. Every method returns the text of one
// or more complete physical lines without a trailing newline.
type Dialect interface {
	Kind() DialectKind
	// Ext is the file extension of generated units, including the dot.
	Ext() string
	// UnitName derives a unit identifier from a document base name.
	UnitName(base string) string

	UnitOpen(name string) string
	BodyOpen() string
	BodyClose() string
	UnitClose(name string) string

	// PrintLine emits text followed by a line break to the output stream.
	PrintLine(text string) string
	// Print emits text without a line break.
	Print(text string) string
	// PrintExpr emits the value of a target-language expression.
	PrintExpr(expr string) string
	// Quote renders text as a string literal.
	Quote(text string) string

	// NewObject declares a local variable id holding a new instance of class.
	// typ may be empty, meaning the declared type equals class.
	NewObject(typ, class, id string) string
	// GetProperty is an expression reading property of obj.
	GetProperty(obj, property string) string
	// SetProperty assigns a string literal value to property of obj.
	SetProperty(obj, property, value string) string
	// Include emits a statement including another page's output.
	Include(page string) string
}

// Kinds lists the supported dialect names.
func Kinds() []string {
	names := make([]string, 0, int(dialectKindCount)-1)
	for k := DialectJava; k < dialectKindCount; k++ {
		names = append(names, k.String())
	}
	return names
}

// Parse resolves a dialect by name; empty selects Java.
func Parse(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "java":
		return Java{}, nil
	case "go", "golang":
		return Go{}, nil
	}
	return nil, fmt.Errorf("unknown dialect %q (expected: %s)", name, strings.Join(Kinds(), "|"))
}

// For returns the dialect of a kind, or nil for DialectUnknown.
func For(kind DialectKind) Dialect {
	switch kind {
	case DialectJava:
		return Java{}
	case DialectGo:
		return Go{}
	}
	return nil
}

// identifier turns an arbitrary base name into an identifier: letters, digits
// and underscores only, never starting with a digit, never empty.
func identifier(base string) string {
	var b strings.Builder
	for i, r := range base {
		switch {
		case r == '_' || unicode.IsLetter(r):
			b.WriteRune(r)
		case unicode.IsDigit(r):
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}

// accessor capitalizes the first rune of a property name.
func accessor(property string) string {
	if property == "" {
		return property
	}
	r := []rune(property)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
