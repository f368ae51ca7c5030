package dialect

import (
	"strconv"
	"strings"
)

// Go emits a package with a Render(out io.Writer) function.
type Go struct{}

func (Go) Kind() DialectKind { return DialectGo }

func (Go) Ext() string { return ".go" }

// UnitName lower-cases the identifier so it is usable as a package name.
func (Go) UnitName(base string) string { return strings.ToLower(identifier(base)) }

func (Go) UnitOpen(name string) string {
	return "package " + name + "\n\nimport (\n\t\"fmt\"\n\t\"io\"\n)\n\nvar _ = fmt.Fprint"
}

func (Go) BodyOpen() string { return "func Render(out io.Writer) {" }

func (Go) BodyClose() string { return "}" }

func (Go) UnitClose(name string) string { return "// end of " + name }

func (g Go) PrintLine(text string) string {
	return "\tio.WriteString(out, " + g.Quote(text+"\n") + ")"
}

func (g Go) Print(text string) string {
	return "\tio.WriteString(out, " + g.Quote(text) + ")"
}

func (Go) PrintExpr(expr string) string {
	return "\tfmt.Fprint(out, " + expr + ")"
}

func (Go) Quote(text string) string { return strconv.Quote(text) }

func (Go) NewObject(_, class, id string) string {
	return "\t" + id + " := &" + class + "{}"
}

func (Go) GetProperty(obj, property string) string {
	return obj + "." + accessor(property)
}

func (g Go) SetProperty(obj, property, value string) string {
	return "\t" + obj + "." + accessor(property) + " = " + g.Quote(value)
}

func (g Go) Include(page string) string {
	return "\tInclude(out, " + g.Quote(page) + ")"
}
