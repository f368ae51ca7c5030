package scan

// Pos is the location of an event in the document.
type Pos struct {
	Offset int // byte offset, 0-based
	Line   int // 1-based
}

// FragmentKind tells which kind of code block a fragment came from.
type FragmentKind uint8

const (
	FragmentScriptlet FragmentKind = iota
	FragmentDeclaration
	FragmentExpression
)

func (k FragmentKind) String() string {
	switch k {
	case FragmentDeclaration:
		return "declaration"
	case FragmentExpression:
		return "expression"
	default:
		return "scriptlet"
	}
}

// Events receives the scanner's callbacks in document order.
type Events interface {
	TagStart(closing bool, name string, pos Pos)
	TagAttribute(name, value string, pos Pos)
	TagEnd(selfClosing bool, pos Pos)
	CodeFragment(kind FragmentKind, text string, pos Pos)
	LiteralText(text string, pos Pos)
}
