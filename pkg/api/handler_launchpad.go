package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/adambalm/memento/pkg/models"
)

// launchpadViewHandler handles GET /api/launchpad/:id — the session with
// derived item states.
func (s *Server) launchpadViewHandler(c *echo.Context) error {
	view, err := s.dispositions.View(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// launchpadAppliedHandler handles GET /api/launchpad/:id/applied — the view
// with groups reshaped and terminal items extracted.
func (s *Server) launchpadAppliedHandler(c *echo.Context) error {
	view, err := s.dispositions.ViewApplied(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, view)
}

// dispositionHandler handles POST /api/launchpad/:id/disposition.
func (s *Server) dispositionHandler(c *echo.Context) error {
	var d models.Disposition
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entry, err := s.dispositions.Append(c.Param("id"), d)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, entry)
}

// batchDispositionHandler handles POST /api/launchpad/:id/batch-disposition.
func (s *Server) batchDispositionHandler(c *echo.Context) error {
	var req BatchDispositionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	entries, err := s.dispositions.AppendBatch(c.Param("id"), req.Dispositions)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

// createEffortHandler handles POST /api/launchpad/:id/effort.
func (s *Server) createEffortHandler(c *echo.Context) error {
	var req CreateEffortRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	effort, err := s.efforts.Create(c.Param("id"), req.Name, req.Items)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, effort)
}

// completeEffortHandler handles POST /api/launchpad/:id/effort/:eid/complete.
func (s *Server) completeEffortHandler(c *echo.Context) error {
	effort, err := s.efforts.Complete(c.Param("id"), c.Param("eid"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, effort)
}

// deferEffortHandler handles POST /api/launchpad/:id/effort/:eid/defer.
func (s *Server) deferEffortHandler(c *echo.Context) error {
	effort, err := s.efforts.Defer(c.Param("id"), c.Param("eid"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, effort)
}

// effortStatsHandler handles GET /api/launchpad/:id/effort-stats.
func (s *Server) effortStatsHandler(c *echo.Context) error {
	stats, err := s.efforts.Stats(c.Param("id"))
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, stats)
}
