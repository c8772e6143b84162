// Package policy binds each check kind to an operator configured enforcement
// level and classifies raw detector results against it.
package policy

import (
	"github.com/safedep/dry/log"
	"github.com/safedep/safeguard/core/check"
)

// Level is the enforcement level bound to a check kind. Ordered ascending.
type Level int

const (
	// LevelIgnore discards violations silently.
	LevelIgnore Level = iota
	// LevelWarning discloses violations and always lets the user continue.
	LevelWarning
	// LevelError discloses violations and terminates unless overridden.
	LevelError
)

// Configuration names of the levels. Matching is case-sensitive.
const (
	NameIgnore  = "IGNORE"
	NameWarning = "WARNING"
	NameError   = "ERROR"
)

// String returns the configuration name of the level.
func (l Level) String() string {
	switch l {
	case LevelIgnore:
		return NameIgnore
	case LevelWarning:
		return NameWarning
	case LevelError:
		return NameError
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps an exact level name to a Level.
func ParseLevel(raw string) (Level, bool) {
	switch raw {
	case NameIgnore:
		return LevelIgnore, true
	case NameWarning:
		return LevelWarning, true
	case NameError:
		return LevelError, true
	default:
		return LevelIgnore, false
	}
}

// Fallback describes a policy string that could not be resolved.
type Fallback struct {
	Kind    check.Kind
	Raw     string
	Applied Level
}

// Resolve returns the level named by raw, or def when raw is not a known
// level name. It never fails.
func Resolve(raw string, def Level) (Level, bool) {
	if level, ok := ParseLevel(raw); ok {
		return level, true
	}
	return def, false
}

// DefaultLevel returns the documented default for a kind. Rooted devices are
// the only class that blocks by default.
func DefaultLevel(kind check.Kind) Level {
	if kind == check.KindRoot {
		return LevelError
	}
	return LevelWarning
}

// resolveKind resolves raw for kind and logs a diagnostic on fallback.
func resolveKind(kind check.Kind, raw string) (Level, *Fallback) {
	def := DefaultLevel(kind)
	if raw == "" {
		return def, nil
	}

	level, ok := Resolve(raw, def)
	if ok {
		return level, nil
	}

	log.Warnf("invalid enforcement level for %s: %q, using default: %s", kind, raw, def)
	return level, &Fallback{Kind: kind, Raw: raw, Applied: level}
}
