// Memento core server - classifies tab captures and manages session state.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adambalm/memento/pkg/api"
	"github.com/adambalm/memento/pkg/classifier"
	"github.com/adambalm/memento/pkg/cleanup"
	"github.com/adambalm/memento/pkg/config"
	"github.com/adambalm/memento/pkg/learning"
	"github.com/adambalm/memento/pkg/llm"
	"github.com/adambalm/memento/pkg/longitudinal"
	"github.com/adambalm/memento/pkg/services"
	"github.com/adambalm/memento/pkg/store"
	"github.com/adambalm/memento/pkg/tasks"
	"github.com/adambalm/memento/pkg/version"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "."),
		"Path to configuration directory")
	configFile := flag.String("config",
		getEnv("MEMENTO_CONFIG", ""),
		"Optional YAML config file")
	flag.Parse()

	// Load .env file from config directory
	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	httpPort := getEnv("HTTP_PORT", "7077")

	log.Printf("Starting %s", version.Full())
	log.Printf("HTTP Port: %s", httpPort)

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Sessions Directory: %s", cfg.SessionsDir)

	// Stores.
	sessions := store.NewSessionStore(cfg.SessionsDir)
	userState := store.NewUserState(cfg.MementoDir)
	preferences := store.NewPreferenceStore(cfg.PreferencesPath)
	domainRules := store.NewDomainRuleStore(cfg.DomainRulesPath)

	// Services.
	dispositions := services.NewDispositionService(sessions)
	efforts := services.NewEffortService(sessions)
	lock := services.NewLockService(cfg.LockPath())

	// Model runner. The registry resolves drivers registered at build time;
	// every call gets the configured timeout and retry budget.
	runner := llm.NewRetryRunner(llm.DefaultRegistry(), cfg.ModelTimeout, cfg.ModelRetries)
	pipeline := classifier.New(runner, preferences, cfg.Pricing)

	// Longitudinal layer.
	aggregator := longitudinal.NewAggregator(sessions)
	defer aggregator.Close()
	analyzer := learning.NewAnalyzer(sessions, preferences)
	interests := longitudinal.NewInterestLoader(cfg.InterestsDir)
	themes := longitudinal.NewThemeDetector(aggregator, interests, analyzer,
		filepath.Join(cfg.MementoDir, "theme-feedback.json"))
	generator := tasks.NewGenerator(aggregator, userState)
	actions := tasks.NewActions(aggregator, dispositions, userState)

	// Maintenance sweep.
	sweeper := cleanup.NewService(userState, cfg.CleanupInterval)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	server := api.NewServer(api.Deps{
		Config:       cfg,
		Sessions:     sessions,
		UserState:    userState,
		DomainRules:  domainRules,
		Classifier:   pipeline,
		Dispositions: dispositions,
		Efforts:      efforts,
		Lock:         lock,
		Analyzer:     analyzer,
		Preferences:  preferences,
		Aggregator:   aggregator,
		Themes:       themes,
		Generator:    generator,
		Actions:      actions,
	})

	go func() {
		if err := server.Start(":" + httpPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("HTTP server failed: %v", err)
		}
	}()
	log.Printf("✓ Listening on :%s", httpPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
