// Package config resolves the persisted-state layout, model pricing, and
// pipeline timeouts from the environment with an optional YAML overlay.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pricing holds dollar-per-million-token unit prices used for meta.cost.
// Treated as configuration, not contract — defaults mirror the historical
// values.
type Pricing struct {
	InputPerMillion  float64 `yaml:"input_per_million"`
	OutputPerMillion float64 `yaml:"output_per_million"`
}

// Config is the resolved application configuration.
type Config struct {
	// SessionsDir holds session artifacts (<ISO8601>.json).
	SessionsDir string `yaml:"sessions_dir"`
	// ReclassificationsDir holds pass-4-only reruns (<origId>--<ISO8601>.json).
	ReclassificationsDir string `yaml:"reclassifications_dir"`
	// MementoDir is the user-scoped state root (~/.memento): lock, blocklist,
	// deferrals, paused projects, task log, context.json.
	MementoDir string `yaml:"memento_dir"`
	// PreferencesPath is the learned-rules file (prompts/learned-rules.json).
	PreferencesPath string `yaml:"preferences_path"`
	// DomainRulesPath is the per-hostname signal file (domain-rules.json).
	DomainRulesPath string `yaml:"domain_rules_path"`
	// InterestsDir optionally holds research-interest markdown notes.
	InterestsDir string `yaml:"interests_dir"`

	// DefaultEngine is used when a classify request names no engine.
	DefaultEngine string `yaml:"default_engine"`

	// ModelTimeout bounds each model call; ModelRetries is the number of
	// retries after the first attempt, with the prompt unchanged.
	ModelTimeout time.Duration `yaml:"model_timeout"`
	ModelRetries int           `yaml:"model_retries"`

	Pricing Pricing `yaml:"pricing"`

	// CleanupInterval paces the maintenance sweep over expired deferrals and
	// paused projects.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// DebugMode captures prompt/response traces into artifacts.
	DebugMode bool `yaml:"debug_mode"`
}

// Load resolves configuration from the environment, overlaying an optional
// YAML file when configPath is non-empty.
func Load(configPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}

	baseDir := getEnv("MEMENTO_BASE_DIR", filepath.Join(home, ".memento", "data"))
	projectRoot := getEnv("MEMENTO_PROJECT_ROOT", ".")
	mementoDir := getEnv("MEMENTO_DIR", filepath.Join(home, ".memento"))

	cfg := &Config{
		SessionsDir:          filepath.Join(baseDir, "sessions"),
		ReclassificationsDir: filepath.Join(baseDir, "reclassifications"),
		MementoDir:           mementoDir,
		PreferencesPath:      filepath.Join(projectRoot, "prompts", "learned-rules.json"),
		DomainRulesPath:      filepath.Join(mementoDir, "memory", "domain-rules.json"),
		InterestsDir:         getEnv("MEMENTO_INTERESTS_DIR", ""),
		DefaultEngine:        getEnv("MEMENTO_ENGINE", "default"),
		ModelTimeout:         getDuration("MEMENTO_MODEL_TIMEOUT", 3*time.Minute),
		ModelRetries:         getInt("MEMENTO_MODEL_RETRIES", 2),
		Pricing: Pricing{
			InputPerMillion:  getFloat("MEMENTO_PRICE_INPUT", 1.0),
			OutputPerMillion: getFloat("MEMENTO_PRICE_OUTPUT", 5.0),
		},
		CleanupInterval: getDuration("MEMENTO_CLEANUP_INTERVAL", time.Hour),
		DebugMode:       getBool("MEMENTO_DEBUG", false),
	}

	if configPath != "" {
		if err := cfg.mergeFile(configPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the resolved configuration for internal consistency.
func (c *Config) Validate() error {
	if c.SessionsDir == "" {
		return fmt.Errorf("sessions_dir must not be empty")
	}
	if c.MementoDir == "" {
		return fmt.Errorf("memento_dir must not be empty")
	}
	if c.ModelTimeout <= 0 {
		return fmt.Errorf("model_timeout must be positive, got %s", c.ModelTimeout)
	}
	if c.ModelRetries < 0 {
		return fmt.Errorf("model_retries must not be negative, got %d", c.ModelRetries)
	}
	if c.Pricing.InputPerMillion < 0 || c.Pricing.OutputPerMillion < 0 {
		return fmt.Errorf("pricing must not be negative")
	}
	return nil
}

// LockPath returns the Launchpad lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.MementoDir, "lock.json")
}

// UserContextPath returns the optional user context file location.
func (c *Config) UserContextPath() string {
	return filepath.Join(c.MementoDir, "context.json")
}
