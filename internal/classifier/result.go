package classifier

import (
	"fmt"
	"strings"
)

// Match is one signal that fired during scoring.
type Match struct {
	// Label identifies the signal
	Label string `json:"label"`

	// Weight is the signed contribution to the score
	Weight int `json:"weight"`
}

// String renders the match with its sign-annotated weight, e.g. "greeting(-50)".
func (m Match) String() string {
	return fmt.Sprintf("%s(%+d)", m.Label, m.Weight)
}

// Score is the outcome of scoring one message.
type Score struct {
	// Score is the sum of all matched weights
	Score int `json:"score"`

	// Matches lists fired signals in registry order
	Matches []Match `json:"matches,omitempty"`
}

// HasMatches returns true if any signal fired.
func (s Score) HasMatches() bool {
	return len(s.Matches) > 0
}

// MatchedLabels returns sign-annotated labels in registry order.
func (s Score) MatchedLabels() []string {
	labels := make([]string, len(s.Matches))
	for i, m := range s.Matches {
		labels[i] = m.String()
	}
	return labels
}

// Positive returns the matches with a positive weight.
func (s Score) Positive() []Match {
	var out []Match
	for _, m := range s.Matches {
		if m.Weight > 0 {
			out = append(out, m)
		}
	}
	return out
}

// Reason explains how a single line was classified.
type Reason string

const (
	ReasonEmpty   Reason = "empty"
	ReasonSafe    Reason = "safe"
	ReasonThought Reason = "thought"
	ReasonDefault Reason = "default"
)

// LineVerdict is the diagnostic form of a line classification.
type LineVerdict struct {
	Line      string `json:"line"`
	IsThought bool   `json:"is_thought"`
	Reason    Reason `json:"reason"`

	// Label is the safe or thought rule that decided the line, if any
	Label string `json:"label,omitempty"`
}

// Redaction is the result of filtering thought lines out of a message.
type Redaction struct {
	// FilteredText is the surviving text, trimmed. Empty when everything was removed.
	FilteredText string `json:"filtered_text"`

	// RemovedLines holds removed lines in original order, or the whole
	// original text as a single entry for a whole-message hit.
	RemovedLines []string `json:"removed_lines,omitempty"`

	// KeptLines holds surviving lines in original order, before trimming
	KeptLines []string `json:"-"`

	// Labels lists the rules that caused removals, deduplicated, first-seen order
	Labels []string `json:"labels,omitempty"`

	// WholeMessage is set when the whole-message detector short-circuited
	WholeMessage bool `json:"whole_message"`
}

// Removed returns true if anything was removed.
func (r Redaction) Removed() bool {
	return len(r.RemovedLines) > 0
}

// Emptied returns true if nothing sendable is left.
func (r Redaction) Emptied() bool {
	return strings.TrimSpace(r.FilteredText) == ""
}
