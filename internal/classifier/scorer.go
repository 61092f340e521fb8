package classifier

import (
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

// Scorer sums the weights of every signal that matches a message.
type Scorer struct {
	signals *rules.Registry
}

// NewScorer creates a Scorer over the given signal registry.
func NewScorer(signals *rules.Registry) *Scorer {
	return &Scorer{signals: signals}
}

// Score evaluates every signal against text. Opposing signals cancel
// additively; there is no veto at this level.
func (s *Scorer) Score(text string) Score {
	var result Score
	s.signals.Each(func(sig rules.Signal) bool {
		if sig.Matches(text) {
			result.Score += sig.Weight
			result.Matches = append(result.Matches, Match{Label: sig.Label, Weight: sig.Weight})
		}
		return true
	})
	return result
}
