package policy

import (
	"github.com/fyrsmithlabs/thoughtguard/internal/classifier"
)

// Strategy decides what to do with one message text.
type Strategy interface {
	// Name returns the configured strategy name.
	Name() string

	// Decide evaluates text. Implementations are pure and safe for
	// concurrent use.
	Decide(text string) Outcome
}

// Outcome is a decision plus the evidence behind it.
// Exactly one of Score and Redaction is set, depending on the strategy.
type Outcome struct {
	Decision  Decision
	Score     *classifier.Score
	Redaction *classifier.Redaction
}

// Labels returns the diagnostic labels behind the decision.
func (o Outcome) Labels() []string {
	switch {
	case o.Score != nil:
		return o.Score.MatchedLabels()
	case o.Redaction != nil:
		return o.Redaction.Labels
	}
	return nil
}

// Noteworthy reports whether the evaluation matched any signal or removed
// any line. Only noteworthy outcomes are audited.
func (o Outcome) Noteworthy() bool {
	switch {
	case o.Score != nil:
		return o.Score.HasMatches()
	case o.Redaction != nil:
		return o.Redaction.Removed()
	}
	return false
}

// ThresholdStrategy cancels messages whose score reaches the threshold.
// It never partially redacts.
type ThresholdStrategy struct {
	scorer    *classifier.Scorer
	threshold int
}

// NewThresholdStrategy creates a ThresholdStrategy.
func NewThresholdStrategy(scorer *classifier.Scorer, threshold int) *ThresholdStrategy {
	return &ThresholdStrategy{scorer: scorer, threshold: threshold}
}

// Name implements Strategy.
func (s *ThresholdStrategy) Name() string { return StrategyThreshold }

// Threshold returns the block threshold.
func (s *ThresholdStrategy) Threshold() int { return s.threshold }

// Decide implements Strategy.
func (s *ThresholdStrategy) Decide(text string) Outcome {
	score := s.scorer.Score(text)
	out := Outcome{Decision: PassThrough(), Score: &score}
	if score.Score >= s.threshold {
		out.Decision = Cancel()
	}
	return out
}

// RedactionStrategy strips thought lines and cancels when nothing is left.
type RedactionStrategy struct {
	redactor *classifier.Redactor
}

// NewRedactionStrategy creates a RedactionStrategy.
func NewRedactionStrategy(redactor *classifier.Redactor) *RedactionStrategy {
	return &RedactionStrategy{redactor: redactor}
}

// Name implements Strategy.
func (s *RedactionStrategy) Name() string { return StrategyRedaction }

// Decide implements Strategy.
func (s *RedactionStrategy) Decide(text string) Outcome {
	r := s.redactor.FilterThoughts(text)
	out := Outcome{Decision: PassThrough(), Redaction: &r}
	switch {
	case r.FilteredText == "":
		out.Decision = Cancel()
	case r.FilteredText != text:
		out.Decision = ReplaceContent(r.FilteredText)
	}
	return out
}
