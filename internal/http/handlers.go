package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/thoughtguard/internal/guard"
	"github.com/fyrsmithlabs/thoughtguard/internal/rules"
)

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	resp := HealthResponse{Status: "ok", Strategy: s.guard.Strategy()}
	if s.telemetry != nil {
		h := s.telemetry.Health()
		resp.Telemetry = &h
	}
	return c.JSON(http.StatusOK, resp)
}

// handleClassify runs the configured strategy. A blank text is not an error:
// the guard declines it and the verdict passes.
func (s *Server) handleClassify(c echo.Context) error {
	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid classify request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	verdict := s.guard.Evaluate(c.Request().Context(), guard.Message{
		Text:        req.Text,
		Destination: req.Destination,
		Channel:     req.Channel,
	})
	return c.JSON(http.StatusOK, verdict)
}

// bindText decodes a TextRequest and rejects blank text.
func (s *Server) bindText(c echo.Context) (string, error) {
	var req TextRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn(c.Request().Context(), "invalid request", zap.Error(err))
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "text field is required")
	}
	return req.Text, nil
}

// handleScore returns the weighted signal score only.
func (s *Server) handleScore(c echo.Context) error {
	text, err := s.bindText(c)
	if err != nil {
		return err
	}

	score := s.guard.Engine().Score(text)
	return c.JSON(http.StatusOK, ScoreResponse{
		Score:         score.Score,
		MatchedLabels: score.MatchedLabels(),
		Matches:       score.Matches,
	})
}

// handleFilter returns the redaction result without applying a policy.
func (s *Server) handleFilter(c echo.Context) error {
	text, err := s.bindText(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, s.guard.Engine().FilterThoughts(text))
}

// handleLines explains how each line was classified.
func (s *Server) handleLines(c echo.Context) error {
	text, err := s.bindText(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, LinesResponse{Lines: s.guard.Engine().ExplainLines(text)})
}

// handleRules lists the loaded rule tables.
func (s *Server) handleRules(c echo.Context) error {
	return c.JSON(http.StatusOK, RulesResponse{
		Strategy: s.guard.Strategy(),
		Tables:   describeRegistries(s.guard.Engine().Registries()),
	})
}

// handleReload recompiles the configured rules file. The current rules stay
// active when the file is invalid.
func (s *Server) handleReload(c echo.Context) error {
	err := s.guard.Reload(c.Request().Context())
	switch {
	case errors.Is(err, guard.ErrNoRulesFile):
		return echo.NewHTTPError(http.StatusConflict, "no rules file configured")
	case err != nil:
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	return c.JSON(http.StatusOK, RulesResponse{
		Strategy: s.guard.Strategy(),
		Tables:   describeRegistries(s.guard.Engine().Registries()),
	})
}

func describeRegistries(regs *rules.Registries) []RuleTable {
	all := regs.All()
	tables := make([]RuleTable, 0, len(all))
	for _, reg := range all {
		table := RuleTable{Name: reg.Name(), Count: reg.Len(), Rules: make([]RuleInfo, 0, reg.Len())}
		reg.Each(func(sig rules.Signal) bool {
			table.Rules = append(table.Rules, RuleInfo{
				Label:       sig.Label,
				Weight:      sig.Weight,
				Description: sig.Description,
			})
			return true
		})
		tables = append(tables, table)
	}
	return tables
}
