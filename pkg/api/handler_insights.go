package api

import (
	"net/http"
	"strconv"

	echo "github.com/labstack/echo/v5"

	"github.com/adambalm/memento/pkg/models"
)

// recurringHandler handles GET /api/insights/recurring.
func (s *Server) recurringHandler(c *echo.Context) error {
	minOccurrences := 2
	if v := c.QueryParam("min"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			minOccurrences = n
		}
	}
	timeRange := c.QueryParam("range")

	recurring, err := s.aggregator.RecurringUnfinished(minOccurrences, timeRange)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, recurring)
}

// projectHealthHandler handles GET /api/insights/project-health.
func (s *Server) projectHealthHandler(c *echo.Context) error {
	includeAbandoned := true
	if v := c.QueryParam("include_abandoned"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			includeAbandoned = b
		}
	}

	health, err := s.aggregator.ProjectHealth(includeAbandoned)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, health)
}

// distractionHandler handles GET /api/insights/distraction.
func (s *Server) distractionHandler(c *echo.Context) error {
	sig, err := s.aggregator.DistractionSignature(c.QueryParam("range"), c.QueryParam("mode"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, sig)
}

// correctionsHandler handles GET /api/insights/corrections.
func (s *Server) correctionsHandler(c *echo.Context) error {
	rates, err := s.analyzer.CorrectionRates()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, rates)
}

// extractorsHandler handles GET /api/insights/extractors.
func (s *Server) extractorsHandler(c *echo.Context) error {
	suggestions, err := s.analyzer.SuggestExtractors(2, 0.3)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, suggestions)
}

// themesHandler handles GET /api/themes.
func (s *Server) themesHandler(c *echo.Context) error {
	themes, err := s.themes.Proposals()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, themes)
}

// themeFeedbackHandler handles POST /api/themes/:id/feedback.
func (s *Server) themeFeedbackHandler(c *echo.Context) error {
	var req ThemeFeedbackRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.themes.Feedback(c.Param("id"), req.Action, req.RenamedTo); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true})
}

// tasksHandler handles GET /api/tasks.
func (s *Server) tasksHandler(c *echo.Context) error {
	generated, err := s.generator.Generate()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, generated)
}

// taskActionHandler handles POST /api/tasks/action. The task snapshot rides
// in the body because tasks are derived on read, not stored.
func (s *Server) taskActionHandler(c *echo.Context) error {
	var req TaskActionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Task.Type == "" || req.Action == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "task and action are required")
	}

	outcome, err := s.actions.Apply(req.Task, req.Action)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &TaskActionResponse{Success: true, Outcome: outcome})
}

// listDomainRulesHandler handles GET /api/domain-rules.
func (s *Server) listDomainRulesHandler(c *echo.Context) error {
	file, err := s.domainRules.All()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, file)
}

// setDomainRuleHandler handles POST /api/domain-rules.
func (s *Server) setDomainRuleHandler(c *echo.Context) error {
	var req DomainRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Host == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "host is required")
	}
	switch req.Signal {
	case models.SignalNoise, models.SignalAlwaysInteresting, models.SignalContextual:
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "signal must be noise, always-interesting, or contextual")
	}

	if err := s.domainRules.Set(req.Host, req.Signal, req.Reason); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true})
}

// deleteDomainRuleHandler handles DELETE /api/domain-rules/:host.
func (s *Server) deleteDomainRuleHandler(c *echo.Context) error {
	found, err := s.domainRules.Delete(c.Param("host"))
	if err != nil {
		return mapServiceError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "no rule for that host")
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true})
}
