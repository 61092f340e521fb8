package http

import (
	"github.com/fyrsmithlabs/thoughtguard/internal/classifier"
	"github.com/fyrsmithlabs/thoughtguard/internal/telemetry"
)

// ClassifyRequest is the request body for POST /api/v1/classify.
type ClassifyRequest struct {
	Text        string `json:"text"`
	Destination string `json:"destination,omitempty"`
	Channel     string `json:"channel,omitempty"`
}

// TextRequest is the request body for the score, filter and lines endpoints.
type TextRequest struct {
	Text string `json:"text"`
}

// ScoreResponse is the response body for POST /api/v1/score.
type ScoreResponse struct {
	Score         int                `json:"score"`
	MatchedLabels []string           `json:"matched_labels"`
	Matches       []classifier.Match `json:"matches,omitempty"`
}

// LinesResponse is the response body for POST /api/v1/lines.
type LinesResponse struct {
	Lines []classifier.LineVerdict `json:"lines"`
}

// RulesResponse is the response body for GET /api/v1/rules.
type RulesResponse struct {
	Strategy string      `json:"strategy"`
	Tables   []RuleTable `json:"tables"`
}

// RuleTable describes one compiled registry.
type RuleTable struct {
	Name  string     `json:"name"`
	Count int        `json:"count"`
	Rules []RuleInfo `json:"rules"`
}

// RuleInfo describes one rule. Weight is only meaningful for signals.
type RuleInfo struct {
	Label       string `json:"label"`
	Weight      int    `json:"weight,omitempty"`
	Description string `json:"description,omitempty"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status    string                  `json:"status"`
	Strategy  string                  `json:"strategy,omitempty"`
	Telemetry *telemetry.HealthStatus `json:"telemetry,omitempty"`
}

// ErrorResponse is the body echo writes for HTTP errors.
type ErrorResponse struct {
	Message string `json:"message"`
}
