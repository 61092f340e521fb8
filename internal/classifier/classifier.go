// Package classifier implements the stateless engine that spots leaked
// internal reasoning in outgoing messages.
//
// The Scorer sums weighted signals over a whole message. The LineClassifier
// applies safe-pattern vetoes and thought patterns line by line, and the
// Redactor combines it with the WholeMessageDetector to strip thought lines.
// All components only read their compiled registries and are safe for
// concurrent use.
package classifier

import (
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

// Engine bundles every classifier built from one set of registries.
type Engine struct {
	Scorer   *Scorer
	Lines    *LineClassifier
	Whole    *WholeMessageDetector
	Redactor *Redactor

	registries *rules.Registries
}

// New wires all classifiers from compiled registries.
// If regs is nil, the built-in rules are used.
func New(regs *rules.Registries) *Engine {
	if regs == nil {
		regs = rules.DefaultRegistries()
	}

	lines := NewLineClassifier(regs.Safe, regs.Thoughts)
	whole := NewWholeMessageDetector(regs.WholeMessage)
	return &Engine{
		Scorer:     NewScorer(regs.Signals),
		Lines:      lines,
		Whole:      whole,
		Redactor:   NewRedactor(whole, lines),
		registries: regs,
	}
}

// Registries returns the registries the engine was built from.
func (e *Engine) Registries() *rules.Registries {
	return e.registries
}

// Score is shorthand for e.Scorer.Score.
func (e *Engine) Score(text string) Score {
	return e.Scorer.Score(text)
}

// FilterThoughts is shorthand for e.Redactor.FilterThoughts.
func (e *Engine) FilterThoughts(text string) Redaction {
	return e.Redactor.FilterThoughts(text)
}

// ExplainLines classifies every line of text without the whole-message check.
func (e *Engine) ExplainLines(text string) []LineVerdict {
	var verdicts []LineVerdict
	for _, line := range splitLines(text) {
		verdicts = append(verdicts, e.Lines.Explain(line))
	}
	return verdicts
}
