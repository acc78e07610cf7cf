package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"
)

// listSessionsHandler handles GET /api/sessions.
func (s *Server) listSessionsHandler(c *echo.Context) error {
	summaries, err := s.sessions.List()
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// getSessionHandler handles GET /api/sessions/:id.
func (s *Server) getSessionHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}

	artifact, err := s.sessions.Read(sessionID)
	if err != nil {
		return mapServiceError(err)
	}
	if artifact == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, artifact)
}

// latestSessionHandler handles GET /api/sessions/latest.
func (s *Server) latestSessionHandler(c *echo.Context) error {
	id, artifact, err := s.sessions.GetLatest()
	if err != nil {
		return mapServiceError(err)
	}
	if artifact == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no sessions stored")
	}
	artifact.Meta.SessionID = id
	return c.JSON(http.StatusOK, artifact)
}

// searchSessionsHandler handles GET /api/sessions/search?q=.
func (s *Server) searchSessionsHandler(c *echo.Context) error {
	query := c.QueryParam("q")
	if query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query parameter q is required")
	}

	hits, err := s.sessions.Search(query)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, hits)
}
