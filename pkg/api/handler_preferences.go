package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listPreferencesHandler handles GET /api/preferences: stored rules plus
// fresh suggestions from the correction analyzer.
func (s *Server) listPreferencesHandler(c *echo.Context) error {
	file, err := s.preferences.All()
	if err != nil {
		return mapServiceError(err)
	}
	suggestions, err := s.analyzer.GenerateRuleSuggestions(2)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &PreferencesResponse{
		Rules:       file.Rules,
		Rejected:    file.Rejected,
		Suggestions: suggestions,
	})
}

// approvePreferenceHandler handles POST /api/preferences/:id/approve.
func (s *Server) approvePreferenceHandler(c *echo.Context) error {
	id := c.Param("id")

	var req ApproveRuleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	suggestions, err := s.analyzer.GenerateRuleSuggestions(2)
	if err != nil {
		return mapServiceError(err)
	}
	for _, suggestion := range suggestions {
		if suggestion.ID != id {
			continue
		}
		if req.Rule != "" {
			suggestion.Rule = req.Rule
		}
		if err := s.analyzer.ApproveSuggestion(suggestion); err != nil {
			return mapServiceError(err)
		}
		return c.JSON(http.StatusOK, &MessageResponse{Success: true, Message: "rule approved"})
	}
	return echo.NewHTTPError(http.StatusNotFound, "no suggestion with that id")
}

// rejectPreferenceHandler handles POST /api/preferences/:id/reject.
func (s *Server) rejectPreferenceHandler(c *echo.Context) error {
	if err := s.analyzer.RejectSuggestion(c.Param("id")); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true, Message: "suggestion rejected"})
}

// unapprovePreferenceHandler handles POST /api/preferences/:id/unapprove.
func (s *Server) unapprovePreferenceHandler(c *echo.Context) error {
	found, err := s.preferences.Unapprove(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	if !found {
		return echo.NewHTTPError(http.StatusNotFound, "no rule with that id")
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true, Message: "rule unapproved"})
}
