package llm

import (
	"context"
	"fmt"
	"sync"
)

// Registry routes engine ids to registered drivers. Driver packages register
// themselves at init time; the core never links a specific provider.
type Registry struct {
	mu      sync.RWMutex
	drivers map[string]Runner
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{drivers: make(map[string]Runner)}
}

// Register binds a driver to an engine id, replacing any previous binding.
func (r *Registry) Register(engineID string, driver Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drivers[engineID] = driver
}

func (r *Registry) driver(engineID string) (Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	driver, ok := r.drivers[engineID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engineID)
	}
	return driver, nil
}

// RunModel dispatches to the driver registered for engineID.
func (r *Registry) RunModel(ctx context.Context, engineID, prompt string) (*Response, error) {
	driver, err := r.driver(engineID)
	if err != nil {
		return nil, err
	}
	return driver.RunModel(ctx, engineID, prompt)
}

// EngineInfo dispatches to the driver registered for engineID.
func (r *Registry) EngineInfo(engineID string) (*EngineInfo, error) {
	driver, err := r.driver(engineID)
	if err != nil {
		return nil, err
	}
	return driver.EngineInfo(engineID)
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry driver packages register
// into.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// RegisterDriver binds a driver in the default registry.
func RegisterDriver(engineID string, driver Runner) {
	defaultRegistry.Register(engineID, driver)
}
