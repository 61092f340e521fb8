// Package audit records diagnostic evidence for noteworthy guard decisions.
//
// A Record is emitted whenever an evaluation matched at least one signal or
// removed at least one line. Records flow to a Sink: the log sink is always
// configured, and the NATS sink publishes them for downstream review.
package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/fyrsmithlabs/thoughtguard/internal/policy"
)

// Record is the diagnostic trail of one evaluation.
type Record struct {
	ID          string          `json:"id"`
	Time        time.Time       `json:"time"`
	RequestID   string          `json:"request_id,omitempty"`
	Destination string          `json:"destination,omitempty"`
	Channel     string          `json:"channel,omitempty"`
	Strategy    string          `json:"strategy"`
	Decision    policy.Decision `json:"decision"`

	// Score is set by the threshold strategy only.
	Score *int `json:"score,omitempty"`

	// Labels are sign-annotated signal labels (threshold) or the rules
	// that removed lines (redaction).
	Labels []string `json:"labels,omitempty"`

	// RemovedLines is set by the redaction strategy only.
	RemovedLines []string `json:"removed_lines,omitempty"`
	WholeMessage bool     `json:"whole_message,omitempty"`
}

// Route identifies where the audited message was headed.
type Route struct {
	RequestID   string
	Destination string
	Channel     string
}

// NewRecord builds a record from a strategy outcome.
func NewRecord(strategy string, route Route, out policy.Outcome) Record {
	rec := Record{
		ID:          uuid.New().String(),
		Time:        time.Now().UTC(),
		RequestID:   route.RequestID,
		Destination: route.Destination,
		Channel:     route.Channel,
		Strategy:    strategy,
		Decision:    out.Decision,
		Labels:      out.Labels(),
	}
	if out.Score != nil {
		score := out.Score.Score
		rec.Score = &score
	}
	if out.Redaction != nil {
		rec.RemovedLines = out.Redaction.RemovedLines
		rec.WholeMessage = out.Redaction.WholeMessage
	}
	return rec
}
