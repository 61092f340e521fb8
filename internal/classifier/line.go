package classifier

import (
	"strings"

	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

// LineClassifier decides whether a single line is internal reasoning.
type LineClassifier struct {
	safe     *rules.Registry
	thoughts *rules.Registry
}

// NewLineClassifier creates a LineClassifier from the veto and detection registries.
func NewLineClassifier(safe, thoughts *rules.Registry) *LineClassifier {
	return &LineClassifier{safe: safe, thoughts: thoughts}
}

// IsThoughtLine reports whether line should be removed.
func (c *LineClassifier) IsThoughtLine(line string) bool {
	return c.Explain(line).IsThought
}

// Explain classifies line and reports the rule that decided it.
//
// Precedence: blank lines are kept, any safe pattern vetoes, then any
// thought pattern marks the line. Patterns see the trimmed line.
func (c *LineClassifier) Explain(line string) LineVerdict {
	v := LineVerdict{Line: line, Reason: ReasonDefault}

	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		v.Reason = ReasonEmpty
		return v
	}

	if sig, ok := c.safe.FirstMatch(trimmed); ok {
		v.Reason = ReasonSafe
		v.Label = sig.Label
		return v
	}

	if sig, ok := c.thoughts.FirstMatch(trimmed); ok {
		v.IsThought = true
		v.Reason = ReasonThought
		v.Label = sig.Label
	}
	return v
}
