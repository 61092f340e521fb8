package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DecisionsTotal counts verdicts.
	// Labels: strategy (threshold, redaction), decision (pass, replace, cancel)
	DecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thoughtguard",
			Name:      "decisions_total",
			Help:      "Total number of guard decisions by strategy and action",
		},
		[]string{"strategy", "decision"},
	)

	// SignalMatchesTotal counts rules that fired, by label.
	SignalMatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thoughtguard",
			Name:      "signal_matches_total",
			Help:      "Total number of signal or thought rule matches by label",
		},
		[]string{"label"},
	)

	// RemovedLinesTotal counts lines removed by the redaction strategy.
	RemovedLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "thoughtguard",
			Name:      "removed_lines_total",
			Help:      "Total number of lines removed from outgoing messages",
		},
	)

	// ScoreHistogram tracks threshold strategy scores.
	ScoreHistogram = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "thoughtguard",
			Name:      "score",
			Help:      "Distribution of message scores under the threshold strategy",
			Buckets:   []float64{-100, -50, -25, 0, 25, 50, 75, 100, 150},
		},
	)

	// DeclinedTotal counts blank messages the guard declined to classify.
	DeclinedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "thoughtguard",
			Name:      "declined_total",
			Help:      "Total number of messages declined for having no text",
		},
	)

	// RuleReloadsTotal counts rule file reloads.
	// Labels: result (success, error)
	RuleReloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "thoughtguard",
			Name:      "rule_reloads_total",
			Help:      "Total number of rule file reloads by result",
		},
		[]string{"result"},
	)
)
