// Package api provides the HTTP surface for the extension and the insight
// consumers.
package api

import (
	"context"
	"net"
	"net/http"

	echo "github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/adambalm/memento/pkg/classifier"
	"github.com/adambalm/memento/pkg/config"
	"github.com/adambalm/memento/pkg/learning"
	"github.com/adambalm/memento/pkg/longitudinal"
	"github.com/adambalm/memento/pkg/services"
	"github.com/adambalm/memento/pkg/store"
	"github.com/adambalm/memento/pkg/tasks"
)

// Server is the HTTP API server.
type Server struct {
	echo       *echo.Echo
	httpServer *http.Server

	cfg          *config.Config
	sessions     *store.SessionStore
	userState    *store.UserState
	domainRules  *store.DomainRuleStore
	classifier   *classifier.Classifier
	dispositions *services.DispositionService
	efforts      *services.EffortService
	lock         *services.LockService
	analyzer     *learning.Analyzer
	preferences  *store.PreferenceStore
	aggregator   *longitudinal.Aggregator
	themes       *longitudinal.ThemeDetector
	generator    *tasks.Generator
	actions      *tasks.Actions
}

// Deps bundles everything the server needs.
type Deps struct {
	Config       *config.Config
	Sessions     *store.SessionStore
	UserState    *store.UserState
	DomainRules  *store.DomainRuleStore
	Classifier   *classifier.Classifier
	Dispositions *services.DispositionService
	Efforts      *services.EffortService
	Lock         *services.LockService
	Analyzer     *learning.Analyzer
	Preferences  *store.PreferenceStore
	Aggregator   *longitudinal.Aggregator
	Themes       *longitudinal.ThemeDetector
	Generator    *tasks.Generator
	Actions      *tasks.Actions
}

// NewServer creates the API server and registers all routes.
func NewServer(deps Deps) *Server {
	e := echo.New()

	s := &Server{
		echo:         e,
		cfg:          deps.Config,
		sessions:     deps.Sessions,
		userState:    deps.UserState,
		domainRules:  deps.DomainRules,
		classifier:   deps.Classifier,
		dispositions: deps.Dispositions,
		efforts:      deps.Efforts,
		lock:         deps.Lock,
		analyzer:     deps.Analyzer,
		preferences:  deps.Preferences,
		aggregator:   deps.Aggregator,
		themes:       deps.Themes,
		generator:    deps.Generator,
		actions:      deps.Actions,
	}

	s.setupRoutes()
	return s
}

// setupRoutes registers all API routes.
func (s *Server) setupRoutes() {
	// Tab payloads are bounded at 8KB content per tab; 2 MB covers a large
	// capture with JSON envelope overhead and rejects runaway bodies at the
	// HTTP read level.
	s.echo.Use(middleware.BodyLimit(2 * 1024 * 1024))
	s.echo.Use(securityHeaders())

	// Health check
	s.echo.GET("/health", s.healthHandler)

	// Classification (extension contract).
	s.echo.POST("/classifyBrowserContext", s.classifyHandler)

	api := s.echo.Group("/api")

	// Lock endpoints.
	api.POST("/acquire-lock", s.acquireLockHandler)
	api.GET("/lock-status", s.lockStatusHandler)

	// Session list and detail (static paths before :id param).
	api.GET("/sessions", s.listSessionsHandler)
	api.GET("/sessions/latest", s.latestSessionHandler)
	api.GET("/sessions/search", s.searchSessionsHandler)
	api.GET("/sessions/:id", s.getSessionHandler)

	// Per-session Launchpad actions.
	api.GET("/launchpad/:id", s.launchpadViewHandler)
	api.GET("/launchpad/:id/applied", s.launchpadAppliedHandler)
	api.POST("/launchpad/:id/disposition", s.dispositionHandler)
	api.POST("/launchpad/:id/batch-disposition", s.batchDispositionHandler)
	api.POST("/launchpad/:id/clear-lock", s.clearLockHandler)
	api.POST("/launchpad/:id/items-remaining", s.itemsRemainingHandler)
	api.POST("/launchpad/:id/resume-state", s.resumeStateHandler)
	api.POST("/launchpad/:id/effort", s.createEffortHandler)
	api.GET("/launchpad/:id/effort-stats", s.effortStatsHandler)
	api.POST("/launchpad/:id/effort/:eid/complete", s.completeEffortHandler)
	api.POST("/launchpad/:id/effort/:eid/defer", s.deferEffortHandler)

	// Reclassification (pass-4-only rerun).
	api.POST("/reclassify/:id", s.reclassifyHandler)

	// Preferences.
	api.GET("/preferences", s.listPreferencesHandler)
	api.POST("/preferences/:id/approve", s.approvePreferenceHandler)
	api.POST("/preferences/:id/reject", s.rejectPreferenceHandler)
	api.POST("/preferences/:id/unapprove", s.unapprovePreferenceHandler)

	// Domain rules.
	api.GET("/domain-rules", s.listDomainRulesHandler)
	api.POST("/domain-rules", s.setDomainRuleHandler)
	api.DELETE("/domain-rules/:host", s.deleteDomainRuleHandler)

	// Longitudinal insights.
	api.GET("/insights/recurring", s.recurringHandler)
	api.GET("/insights/project-health", s.projectHealthHandler)
	api.GET("/insights/distraction", s.distractionHandler)
	api.GET("/insights/corrections", s.correctionsHandler)
	api.GET("/insights/extractors", s.extractorsHandler)

	// Themes and tasks.
	api.GET("/themes", s.themesHandler)
	api.POST("/themes/:id/feedback", s.themeFeedbackHandler)
	api.GET("/tasks", s.tasksHandler)
	api.POST("/tasks/action", s.taskActionHandler)
}

// Start starts the HTTP server on the given address (blocking).
func (s *Server) Start(addr string) error {
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.echo,
	}
	return s.httpServer.ListenAndServe()
}

// StartWithListener starts the HTTP server on a pre-created listener.
// Used by test infrastructure to serve on a random OS-assigned port.
func (s *Server) StartWithListener(ln net.Listener) error {
	s.httpServer = &http.Server{Handler: s.echo}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// healthHandler handles GET /health.
func (s *Server) healthHandler(c *echo.Context) error {
	summaries, err := s.sessions.List()
	status := "healthy"
	if err != nil {
		status = "degraded"
	}
	lockStatus := s.lock.Status()
	return c.JSON(http.StatusOK, &HealthResponse{
		Status:   status,
		Version:  versionString(),
		Sessions: len(summaries),
		Lock:     &lockStatus,
	})
}
