package policy

import (
	"github.com/safedep/safeguard/core/check"
)

// Violation is a raw result that the configured policy does not ignore.
type Violation struct {
	// Kind is the check that produced the result.
	Kind check.Kind
	// Result is the raw result. Never a Success.
	Result check.Result
	// Level is the resolved enforcement level. Never LevelIgnore.
	Level Level
	// Title is the heading shown to the user.
	Title string
	// Fault is set when the result was synthesized from a detector failure.
	Fault bool
}

// Classify couples a raw result with the policy for kind. It returns false
// when the result is a Success or the kind is ignored.
func (c *Config) Classify(kind check.Kind, result check.Result, title string) (Violation, bool) {
	if result.IsSuccess() {
		return Violation{}, false
	}

	level := c.Level(kind)
	if level == LevelIgnore {
		return Violation{}, false
	}

	if title == "" {
		title = kind.Title()
	}

	return Violation{
		Kind:   kind,
		Result: result,
		Level:  level,
		Title:  title,
	}, true
}
