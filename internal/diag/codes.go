package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Scanner
	ScanInfo                Code = 1000
	ScanUnterminatedScript  Code = 1001
	ScanUnterminatedComment Code = 1002
	ScanUnterminatedTag     Code = 1003
	ScanBadAttribute        Code = 1004

	// Tag dispatch
	TagInfo          Code = 2000
	TagHandlerFailed Code = 2001
	TagUnknown       Code = 2002
	TagMissingAttr   Code = 2003

	// Document assembly
	AsmInfo          Code = 3000
	AsmEmptyUnit     Code = 3001
	AsmMapOutOfRange Code = 3002

	// I/O
	IOLoadFileError  Code = 4001
	IOCacheError     Code = 4002
	IOWriteFileError Code = 4003
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	ScanInfo:                "Scanner information",
	ScanUnterminatedScript:  "Unterminated script fragment",
	ScanUnterminatedComment: "Unterminated comment",
	ScanUnterminatedTag:     "Unterminated tag",
	ScanBadAttribute:        "Malformed tag attribute",
	TagInfo:                 "Tag information",
	TagHandlerFailed:        "Tag handler failed",
	TagUnknown:              "Unknown tag",
	TagMissingAttr:          "Missing required tag attribute",
	AsmInfo:                 "Assembly information",
	AsmEmptyUnit:            "Generated unit has no content",
	AsmMapOutOfRange:        "Source map entry out of range",
	IOLoadFileError:         "Failed to load document",
	IOCacheError:            "Cache access failed",
	IOWriteFileError:        "Failed to write output",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("SCN%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TAG%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("ASM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
