// Package cleanup provides the periodic maintenance sweep over user state.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/adambalm/memento/pkg/store"
)

// Service periodically prunes expired deferrals and expired paused-projects
// from the user state files. All operations are idempotent.
type Service struct {
	state    *store.UserState
	interval time.Duration

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(state *store.UserState, interval time.Duration) *Service {
	return &Service{state: state, interval: interval}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Cleanup service started", "interval", s.interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Cleanup service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.sweep()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Service) sweep() {
	if removed := s.state.PruneExpired(time.Now().UTC()); removed > 0 {
		slog.Info("Pruned expired user state", "count", removed)
	}
}
