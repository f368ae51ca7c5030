package dialect

import (
	"fmt"
	"strings"
)

const javaIndent = "    "

// Java emits a class with a single out() method writing to System.out.
type Java struct{}

func (Java) Kind() DialectKind { return DialectJava }

func (Java) Ext() string { return ".java" }

func (Java) UnitName(base string) string { return identifier(base) }

func (Java) UnitOpen(name string) string { return "public class " + name + " {" }

func (Java) BodyOpen() string { return "  public void out() {" }

func (Java) BodyClose() string { return "  }" }

func (Java) UnitClose(string) string { return "}" }

func (j Java) PrintLine(text string) string {
	return javaIndent + "System.out.println(" + j.Quote(text) + ");"
}

func (j Java) Print(text string) string {
	return javaIndent + "System.out.print(" + j.Quote(text) + ");"
}

func (Java) PrintExpr(expr string) string {
	return javaIndent + "System.out.print(" + expr + ");"
}

// Quote escapes text as a Java string literal. Characters outside the
// printable ASCII range are written as \uXXXX (surrogate pairs above the BMP).
func (Java) Quote(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte('"')
	for _, r := range text {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			switch {
			case r >= 0x20 && r < 0x7f:
				b.WriteRune(r)
			case r > 0xffff:
				r -= 0x10000
				fmt.Fprintf(&b, `\u%04x\u%04x`, 0xd800+(r>>10), 0xdc00+(r&0x3ff))
			default:
				fmt.Fprintf(&b, `\u%04x`, r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

func (Java) NewObject(typ, class, id string) string {
	if typ == "" {
		typ = class
	}
	return javaIndent + typ + " " + id + " = new " + class + "();"
}

func (Java) GetProperty(obj, property string) string {
	return obj + ".get" + accessor(property) + "()"
}

func (j Java) SetProperty(obj, property, value string) string {
	return javaIndent + obj + ".set" + accessor(property) + "(" + j.Quote(value) + ");"
}

func (j Java) Include(page string) string {
	return javaIndent + "include(" + j.Quote(page) + ");"
}
