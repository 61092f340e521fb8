package classifier

import (
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

// WholeMessageDetector flags messages that are internal narration as a whole,
// even when no single line would be caught on its own.
type WholeMessageDetector struct {
	patterns *rules.Registry
}

// NewWholeMessageDetector creates a detector over the whole-message registry.
func NewWholeMessageDetector(patterns *rules.Registry) *WholeMessageDetector {
	return &WholeMessageDetector{patterns: patterns}
}

// IsWholeMessageThought reports whether any whole-message pattern matches text.
func (d *WholeMessageDetector) IsWholeMessageThought(text string) bool {
	_, ok := d.Detect(text)
	return ok
}

// Detect returns the label of the first matching pattern.
func (d *WholeMessageDetector) Detect(text string) (string, bool) {
	sig, ok := d.patterns.FirstMatch(text)
	if !ok {
		return "", false
	}
	return sig.Label, true
}
