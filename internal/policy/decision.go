// Package policy turns classifier output into the action applied to an
// outgoing message.
package policy

import (
	"encoding/json"
	"fmt"
)

// Action is the verdict kind.
type Action string

const (
	// ActionPass sends the original message unchanged.
	ActionPass Action = "pass"

	// ActionReplace sends Decision.Text instead of the original.
	ActionReplace Action = "replace"

	// ActionCancel suppresses the send.
	ActionCancel Action = "cancel"
)

// Decision is the terminal output of one evaluation.
type Decision struct {
	Action Action `json:"action"`

	// Text is the replacement body; only set for ActionReplace.
	Text string `json:"content,omitempty"`
}

// PassThrough leaves the message untouched.
func PassThrough() Decision {
	return Decision{Action: ActionPass}
}

// ReplaceContent replaces the message body with text.
func ReplaceContent(text string) Decision {
	return Decision{Action: ActionReplace, Text: text}
}

// Cancel suppresses the message.
func Cancel() Decision {
	return Decision{Action: ActionCancel}
}

// IsPass returns true for pass-through decisions.
func (d Decision) IsPass() bool { return d.Action == ActionPass }

// IsCancel returns true for cancellations.
func (d Decision) IsCancel() bool { return d.Action == ActionCancel }

// IsReplace returns true for replacements.
func (d Decision) IsReplace() bool { return d.Action == ActionReplace }

// String implements fmt.Stringer.
func (d Decision) String() string {
	if d.Action == ActionReplace {
		return fmt.Sprintf("replace(%d chars)", len([]rune(d.Text)))
	}
	return string(d.Action)
}

// UnmarshalJSON rejects unknown actions and replacements without a body.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action Action `json:"action"`
		Text   string `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch raw.Action {
	case ActionPass, ActionCancel:
		*d = Decision{Action: raw.Action}
	case ActionReplace:
		if raw.Text == "" {
			return fmt.Errorf("decision: replace requires content")
		}
		*d = ReplaceContent(raw.Text)
	default:
		return fmt.Errorf("decision: unknown action %q", raw.Action)
	}
	return nil
}
