package trace

import (
	"fmt"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // failures only
	LevelPhase        // cycles and phases
	LevelDetail       // plus per-pair spans
	LevelDebug        // plus per-key points
)

func (l Level) String() string {
	switch l {
	case LevelOff:
		return "off"
	case LevelError:
		return "error"
	case LevelPhase:
		return "phase"
	case LevelDetail:
		return "detail"
	case LevelDebug:
		return "debug"
	default:
		return "unknown"
	}
}

// ParseLevel converts a string to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "off", "":
		return LevelOff, nil
	case "error":
		return LevelError, nil
	case "phase":
		return LevelPhase, nil
	case "detail":
		return LevelDetail, nil
	case "debug":
		return LevelDebug, nil
	default:
		return LevelOff, fmt.Errorf("invalid trace level: %q (expected: off|error|phase|detail|debug)", s)
	}
}

// ShouldEmit reports whether events of scope pass at this level.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelError:
		return scope == ScopeError
	case LevelPhase:
		return scope == ScopeError || scope == ScopeCycle || scope == ScopePhase
	case LevelDetail:
		return scope != ScopeKey
	case LevelDebug:
		return true
	}
	return false
}
