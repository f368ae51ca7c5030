package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota // no tracing
	LevelDriver              // commands only
	LevelFile                // commands and documents
	LevelPhase               // everything
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelDriver:
		return "driver"
	case LevelFile:
		return "file"
	case LevelPhase:
		return "phase"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off":
		return LevelOff, nil
	case "driver":
		return LevelDriver, nil
	case "file":
		return LevelFile, nil
	case "phase":
		return LevelPhase, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|driver|file|phase)", s)
	}
}

// ShouldEmit reports whether events of scope pass this level.
func (l Level) ShouldEmit(scope Scope) bool {
	return l != LevelOff && uint8(scope) <= uint8(l)
}
