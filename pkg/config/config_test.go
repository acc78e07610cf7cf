package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MEMENTO_BASE_DIR", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 3*time.Minute, cfg.ModelTimeout)
	assert.Equal(t, 2, cfg.ModelRetries)
	assert.InDelta(t, 1.0, cfg.Pricing.InputPerMillion, 1e-9)
	assert.InDelta(t, 5.0, cfg.Pricing.OutputPerMillion, 1e-9)
	assert.Contains(t, cfg.SessionsDir, "sessions")
	assert.Contains(t, cfg.ReclassificationsDir, "reclassifications")
	assert.Contains(t, cfg.LockPath(), "lock.json")
	assert.Contains(t, cfg.UserContextPath(), "context.json")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MEMENTO_BASE_DIR", t.TempDir())
	t.Setenv("MEMENTO_MODEL_TIMEOUT", "90s")
	t.Setenv("MEMENTO_MODEL_RETRIES", "1")
	t.Setenv("MEMENTO_PRICE_INPUT", "0.5")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.ModelTimeout)
	assert.Equal(t, 1, cfg.ModelRetries)
	assert.InDelta(t, 0.5, cfg.Pricing.InputPerMillion, 1e-9)
}

func TestLoad_YAMLOverlayWithEnvExpansion(t *testing.T) {
	t.Setenv("MEMENTO_BASE_DIR", t.TempDir())
	t.Setenv("TEST_SESSIONS_DIR", "/srv/memento/sessions")

	path := filepath.Join(t.TempDir(), "memento.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"sessions_dir: ${TEST_SESSIONS_DIR}\nmodel_retries: 4\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/memento/sessions", cfg.SessionsDir)
	assert.Equal(t, 4, cfg.ModelRetries)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{SessionsDir: "s", MementoDir: "m", ModelTimeout: time.Minute}
	assert.NoError(t, cfg.Validate())

	bad := *cfg
	bad.ModelTimeout = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.SessionsDir = ""
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.ModelRetries = -1
	assert.Error(t, bad.Validate())
}
