package api

import (
	"net/http"

	echo "github.com/labstack/echo/v5"

	"github.com/adambalm/memento/pkg/services"
)

// acquireLockHandler handles POST /api/acquire-lock.
func (s *Server) acquireLockHandler(c *echo.Context) error {
	var req AcquireLockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := s.lock.Acquire(req.SessionID, req.ItemsRemaining); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &MessageResponse{
		Success: true,
		Message: "lock acquired for " + req.SessionID,
	})
}

// lockStatusHandler handles GET /api/lock-status.
func (s *Server) lockStatusHandler(c *echo.Context) error {
	return c.JSON(http.StatusOK, s.lock.Status())
}

// clearLockHandler handles POST /api/launchpad/:id/clear-lock. Without
// override it requires every item in the session to be resolved.
func (s *Server) clearLockHandler(c *echo.Context) error {
	sessionID := c.Param("id")
	if sessionID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "session id is required")
	}
	var req ClearLockRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := services.ClearLaunchpadLock(s.dispositions, s.lock, sessionID, req.Override); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true, Message: "lock cleared"})
}

// itemsRemainingHandler handles POST /api/launchpad/:id/items-remaining.
func (s *Server) itemsRemainingHandler(c *echo.Context) error {
	var req ItemsRemainingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.lock.UpdateItemsRemaining(req.ItemsRemaining); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true})
}

// resumeStateHandler handles POST /api/launchpad/:id/resume-state.
func (s *Server) resumeStateHandler(c *echo.Context) error {
	var req ResumeStateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := s.lock.UpdateResumeState(req.ResumeState); err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &MessageResponse{Success: true})
}
