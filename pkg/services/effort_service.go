package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// EffortService manages user-created groupings of items within a session.
// Completing or deferring an effort propagates as a batch disposition over
// every item, so an effort resolves atomically.
type EffortService struct {
	sessions *store.SessionStore
}

// NewEffortService creates an effort service. Batch dispositions are written
// inside the same session update as the status transition so an effort
// resolution is one atomic write.
func NewEffortService(sessions *store.SessionStore) *EffortService {
	return &EffortService{sessions: sessions}
}

// Create validates and stores a new pending effort. Items are recorded with
// their original category.
func (s *EffortService) Create(sessionID, name string, itemIDs []string) (*models.Effort, error) {
	if name == "" {
		return nil, NewValidationError("name", "required")
	}
	if len(itemIDs) == 0 {
		return nil, NewValidationError("items", "must not be empty")
	}

	effort := models.Effort{
		ID:        "effort-" + uuid.New().String(),
		Name:      name,
		Status:    models.EffortPending,
		CreatedAt: store.NowTimestamp(),
	}

	_, err := s.sessions.Update(sessionID, func(artifact *models.SessionArtifact) error {
		view := FoldDispositions(artifact)
		for _, itemID := range itemIDs {
			item := models.EffortItem{ItemID: itemID}
			if state, ok := view.ItemStates[itemID]; ok {
				item.Title = state.Title
				item.Category = state.OriginalCategory
			}
			effort.Items = append(effort.Items, item)
		}
		artifact.Efforts = append(artifact.Efforts, effort)
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &effort, nil
}

// findEffort locates an effort by id across the session's efforts.
func findEffort(artifact *models.SessionArtifact, effortID string) *models.Effort {
	for i := range artifact.Efforts {
		if artifact.Efforts[i].ID == effortID {
			return &artifact.Efforts[i]
		}
	}
	return nil
}

// Complete transitions a pending effort to completed and emits a batch
// `complete` disposition for every item.
func (s *EffortService) Complete(sessionID, effortID string) (*models.Effort, error) {
	return s.resolve(sessionID, effortID, models.EffortCompleted, models.ActionComplete)
}

// Defer transitions a pending effort to deferred and emits a batch `later`
// disposition for every item.
func (s *EffortService) Defer(sessionID, effortID string) (*models.Effort, error) {
	return s.resolve(sessionID, effortID, models.EffortDeferred, models.ActionLater)
}

func (s *EffortService) resolve(sessionID, effortID, toStatus, action string) (*models.Effort, error) {
	now := store.NowTimestamp()
	var resolved models.Effort

	_, err := s.sessions.Update(sessionID, func(artifact *models.SessionArtifact) error {
		effort := findEffort(artifact, effortID)
		if effort == nil {
			return fmt.Errorf("%w: effort %s", ErrNotFound, effortID)
		}
		if effort.Status != models.EffortPending {
			return fmt.Errorf("%w: effort %s is %s, not pending", ErrPreconditionFailed, effortID, effort.Status)
		}

		effort.Status = toStatus
		switch toStatus {
		case models.EffortCompleted:
			effort.CompletedAt = now
		case models.EffortDeferred:
			effort.DeferredAt = now
		}

		for _, item := range effort.Items {
			artifact.Dispositions = append(artifact.Dispositions, models.Disposition{
				Action: action,
				ItemID: item.ItemID,
				At:     now,
				Batch:  true,
			})
		}
		resolved = *effort
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &resolved, nil
}

// Stats summarizes the session's efforts.
func (s *EffortService) Stats(sessionID string) (*models.EffortStats, error) {
	artifact, err := s.sessions.Read(sessionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if artifact == nil {
		return nil, ErrNotFound
	}

	stats := &models.EffortStats{}
	for _, effort := range artifact.Efforts {
		stats.Total++
		stats.TotalItems += len(effort.Items)
		switch effort.Status {
		case models.EffortPending:
			stats.Pending++
		case models.EffortCompleted:
			stats.Completed++
		case models.EffortDeferred:
			stats.Deferred++
		}
	}
	return stats, nil
}
