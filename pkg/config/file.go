package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// mergeFile overlays values from a YAML config file onto the env-resolved
// configuration. Environment variables referenced as ${VAR} or $VAR in the
// file are expanded before parsing; missing variables expand to empty
// strings, and an empty (or zero) overlay value leaves the env-resolved
// setting in place.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", path)
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var overlay Config
	if err := yaml.Unmarshal([]byte(expanded), &overlay); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if overlay.SessionsDir != "" {
		c.SessionsDir = overlay.SessionsDir
	}
	if overlay.ReclassificationsDir != "" {
		c.ReclassificationsDir = overlay.ReclassificationsDir
	}
	if overlay.MementoDir != "" {
		c.MementoDir = overlay.MementoDir
	}
	if overlay.PreferencesPath != "" {
		c.PreferencesPath = overlay.PreferencesPath
	}
	if overlay.DomainRulesPath != "" {
		c.DomainRulesPath = overlay.DomainRulesPath
	}
	if overlay.InterestsDir != "" {
		c.InterestsDir = overlay.InterestsDir
	}
	if overlay.DefaultEngine != "" {
		c.DefaultEngine = overlay.DefaultEngine
	}
	if overlay.ModelTimeout != 0 {
		c.ModelTimeout = overlay.ModelTimeout
	}
	if overlay.ModelRetries != 0 {
		c.ModelRetries = overlay.ModelRetries
	}
	if overlay.Pricing.InputPerMillion != 0 {
		c.Pricing.InputPerMillion = overlay.Pricing.InputPerMillion
	}
	if overlay.Pricing.OutputPerMillion != 0 {
		c.Pricing.OutputPerMillion = overlay.Pricing.OutputPerMillion
	}
	if overlay.CleanupInterval != 0 {
		c.CleanupInterval = overlay.CleanupInterval
	}
	if overlay.DebugMode {
		c.DebugMode = true
	}
	return nil
}
