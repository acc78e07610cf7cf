package api

import (
	"log/slog"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v5"

	"github.com/adambalm/memento/pkg/classifier"
	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/version"
)

func versionString() string {
	return version.Full()
}

// classifyHandler handles POST /classifyBrowserContext: run the pipeline
// over the captured tabs, persist the artifact, and return it with its
// assigned session id.
func (s *Server) classifyHandler(c *echo.Context) error {
	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Tabs == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "tabs is required")
	}
	switch req.Mode {
	case "", "results", "launchpad":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "mode must be results or launchpad")
	}

	engineID := req.Engine
	if engineID == "" {
		engineID = s.cfg.DefaultEngine
	}

	// Oversized content is truncated rather than rejected; the extension cap
	// and this cap must agree on 8KB.
	for i := range req.Tabs {
		if len(req.Tabs[i].Content) > models.MaxTabContentSize {
			req.Tabs[i].Content = req.Tabs[i].Content[:models.MaxTabContentSize]
		}
	}

	classifyCtx := req.Context
	if classifyCtx == nil || len(classifyCtx.ActiveProjects) == 0 {
		if uc, stale, err := s.userState.ReadUserContext(s.cfg.UserContextPath(), time.Now().UTC()); err == nil && uc != nil {
			if stale {
				slog.Warn("User context file is stale, using anyway", "generated", uc.Generated)
			}
			classifyCtx = &models.ClassifyContext{ActiveProjects: uc.ActiveProjects}
		}
	}

	artifact := s.classifier.Classify(c.Request().Context(), req.Tabs, classifier.Options{
		EngineID:  engineID,
		Context:   classifyCtx,
		DebugMode: req.DebugMode || s.cfg.DebugMode,
		Mode:      req.Mode,
	})

	sessionID := s.sessions.Save(artifact)
	if sessionID == "" {
		slog.Error("Classification completed but session save failed")
	}
	artifact.Meta.SessionID = sessionID

	return c.JSON(http.StatusOK, artifact)
}

// reclassifyHandler handles POST /api/reclassify/:id: rerun the thematic
// pass against a stored session and persist the result as a
// reclassification artifact.
func (s *Server) reclassifyHandler(c *echo.Context) error {
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

	var projects []models.Project
	if uc, _, err := s.userState.ReadUserContext(s.cfg.UserContextPath(), time.Now().UTC()); err == nil && uc != nil {
		projects = uc.ActiveProjects
	}

	result, err := s.classifier.Pass4Only(c.Request().Context(), artifact, projects, s.cfg.DefaultEngine)
	if err != nil {
		return mapServiceError(err)
	}

	id, err := s.sessions.SaveReclassification(s.cfg.ReclassificationsDir, sessionID, result)
	if err != nil {
		return mapServiceError(err)
	}
	return c.JSON(http.StatusOK, &ReclassifyResponse{ID: id, ThematicAnalysis: result})
}
