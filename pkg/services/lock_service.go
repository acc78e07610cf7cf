package services

import (
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// LockService manages the single-slot Launchpad lock. The lock record file
// is itself the lock for Launchpad captures; access to the file is
// serialized by a process-local mutex so lock state transitions are totally
// ordered across all callers.
type LockService struct {
	path string
	mu   sync.Mutex
}

// NewLockService creates a lock service over the given lock file path.
func NewLockService(path string) *LockService {
	return &LockService{path: path}
}

func (s *LockService) read() (*models.Lock, error) {
	var lock models.Lock
	if err := store.ReadJSONFile(s.path, &lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

// Status reports the current lock state. Reads fail open: a missing file or
// any read error reports unlocked so a corrupt lock file can never wedge the
// extension.
func (s *LockService) Status() models.LockStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.read()
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Lock status read failed, reporting unlocked", "error", err)
		}
		return models.LockStatus{Locked: false}
	}
	return models.LockStatus{
		Locked:         true,
		SessionID:      lock.SessionID,
		LockedAt:       lock.LockedAt,
		ItemsRemaining: lock.ItemsRemaining,
		ResumeState:    lock.ResumeState,
	}
}

// Acquire takes the lock for sessionID. A second acquire fails with
// ErrAlreadyLocked, carrying the current holder in the error message.
func (s *LockService) Acquire(sessionID string, itemsRemaining int) error {
	if sessionID == "" {
		return NewValidationError("sessionId", "required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.read(); err == nil {
		return fmt.Errorf("%w: held by %s since %s", ErrAlreadyLocked, existing.SessionID, existing.LockedAt)
	} else if !os.IsNotExist(err) {
		return err
	}

	lock := models.Lock{
		SessionID:      sessionID,
		LockedAt:       time.Now().UTC().Format(time.RFC3339),
		ItemsRemaining: itemsRemaining,
	}
	return store.WriteJSONFile(s.path, &lock)
}

// Clear releases the lock. Clearing an absent lock is idempotent success.
// Without override the provided sessionID must match the holder.
func (s *LockService) Clear(sessionID string, override bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.read()
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if !override && existing.SessionID != sessionID {
		return fmt.Errorf("%w: lock held by %s", ErrSessionIDMismatch, existing.SessionID)
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// UpdateItemsRemaining records progress. Fails with ErrNotFound when no lock
// is held.
func (s *LockService) UpdateItemsRemaining(n int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.read()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no lock held", ErrNotFound)
		}
		return err
	}
	lock.ItemsRemaining = n
	return store.WriteJSONFile(s.path, lock)
}

// UpdateResumeState merges partial into the lock's resume state and stamps
// lastActivity. Fails with ErrNotFound when no lock is held.
func (s *LockService) UpdateResumeState(partial map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, err := s.read()
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: no lock held", ErrNotFound)
		}
		return err
	}
	if lock.ResumeState == nil {
		lock.ResumeState = map[string]any{}
	}
	for k, v := range partial {
		lock.ResumeState[k] = v
	}
	lock.ResumeState["lastActivity"] = time.Now().UTC().Format(time.RFC3339)
	return store.WriteJSONFile(s.path, lock)
}
