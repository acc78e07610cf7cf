package services

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// DispositionService is the append-only mutator over a session's disposition
// log and the view layer that folds it into current per-item state. The log
// is the system's truth: entries are never edited or deleted, and the view
// is a pure function of (original groups, disposition sequence).
type DispositionService struct {
	sessions *store.SessionStore
}

// NewDispositionService creates a disposition service over the session store.
func NewDispositionService(sessions *store.SessionStore) *DispositionService {
	return &DispositionService{sessions: sessions}
}

func validateDisposition(d *models.Disposition) error {
	if !models.ValidActions[d.Action] {
		return NewValidationError("action", fmt.Sprintf("unknown action %q", d.Action))
	}
	if d.ItemID == "" {
		return NewValidationError("itemId", "required")
	}
	switch d.Action {
	case models.ActionRegroup:
		if d.From == "" || d.To == "" {
			return NewValidationError("from/to", "regroup requires both from and to")
		}
	case models.ActionPromote:
		if d.Target == "" {
			return NewValidationError("target", "promote requires target")
		}
	case models.ActionUndo:
		if d.Undoes == "" {
			return NewValidationError("undoes", "undo requires undoes")
		}
	}
	return nil
}

// stamp copies only the fields belonging to the action, with a fresh
// timestamp. Dropping unrelated fields keeps the log canonical regardless of
// what the client sent.
func stamp(d models.Disposition, at string, batch bool) models.Disposition {
	entry := models.Disposition{
		Action: d.Action,
		ItemID: d.ItemID,
		At:     at,
		Batch:  batch,
	}
	switch d.Action {
	case models.ActionRegroup:
		entry.From = d.From
		entry.To = d.To
	case models.ActionPromote:
		entry.Target = d.Target
	case models.ActionReprioritize:
		entry.Priority = d.Priority
	case models.ActionUndo:
		entry.Undoes = d.Undoes
	}
	return entry
}

// Append validates and appends one disposition to the session's log. The
// write is all-or-nothing: on failure no append occurred.
func (s *DispositionService) Append(sessionID string, d models.Disposition) (*models.Disposition, error) {
	if err := validateDisposition(&d); err != nil {
		return nil, err
	}

	entry := stamp(d, store.NowTimestamp(), false)
	_, err := s.sessions.Update(sessionID, func(artifact *models.SessionArtifact) error {
		artifact.Dispositions = append(artifact.Dispositions, entry)
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return &entry, nil
}

// AppendBatch validates all dispositions first (atomic acceptance), stamps
// every entry with the same timestamp and batch=true, and appends the whole
// array in a single write. An empty batch is rejected.
func (s *DispositionService) AppendBatch(sessionID string, dispositions []models.Disposition) ([]models.Disposition, error) {
	if len(dispositions) == 0 {
		return nil, NewValidationError("dispositions", "batch must not be empty")
	}
	for i := range dispositions {
		if err := validateDisposition(&dispositions[i]); err != nil {
			return nil, err
		}
	}

	at := store.NowTimestamp()
	entries := make([]models.Disposition, len(dispositions))
	for i, d := range dispositions {
		entries[i] = stamp(d, at, true)
	}

	_, err := s.sessions.Update(sessionID, func(artifact *models.SessionArtifact) error {
		artifact.Dispositions = append(artifact.Dispositions, entries...)
		return nil
	})
	if err != nil {
		return nil, mapStoreError(err)
	}
	return entries, nil
}

// Get returns the session's disposition list (possibly empty).
func (s *DispositionService) Get(sessionID string) ([]models.Disposition, error) {
	artifact, err := s.sessions.Read(sessionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if artifact == nil {
		return nil, ErrNotFound
	}
	if artifact.Dispositions == nil {
		return []models.Disposition{}, nil
	}
	return artifact.Dispositions, nil
}

// View returns the session with derived item states attached.
func (s *DispositionService) View(sessionID string) (*models.SessionView, error) {
	artifact, err := s.sessions.Read(sessionID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	if artifact == nil {
		return nil, ErrNotFound
	}
	return FoldDispositions(artifact), nil
}

// FoldDispositions computes the derived view: every item starts pending in
// its original category, then dispositions apply in order. The later
// disposition wins for status; regroup accumulates by overwriting
// currentCategory; undo resets to pending and clears status fields,
// restoring the original category when it undoes a regroup.
func FoldDispositions(artifact *models.SessionArtifact) *models.SessionView {
	states := make(map[string]*models.ItemState)
	for category, items := range artifact.Groups {
		for _, item := range items {
			id := item.ItemID()
			states[id] = &models.ItemState{
				ItemID:           id,
				Title:            item.Title,
				URL:              item.URL,
				TabIndex:         item.TabIndex,
				Status:           models.StatusPending,
				OriginalCategory: category,
				CurrentCategory:  category,
			}
		}
	}

	for _, d := range artifact.Dispositions {
		state, ok := states[d.ItemID]
		if !ok {
			// Dispositions for unknown items are kept in the log but have no
			// effect on the view.
			continue
		}
		switch d.Action {
		case models.ActionTrash:
			state.Status = models.StatusTrashed
			state.TrashedAt = d.At
		case models.ActionComplete:
			state.Status = models.StatusCompleted
			state.CompletedAt = d.At
		case models.ActionPromote:
			state.Status = models.StatusPromoted
			state.PromotedAt = d.At
			state.PromotedTo = d.Target
		case models.ActionDefer:
			state.Status = models.StatusDeferred
			state.DeferredAt = d.At
		case models.ActionLater:
			state.Status = models.StatusLater
			state.LaterAt = d.At
		case models.ActionRegroup:
			if state.RegroupedFrom == "" {
				state.RegroupedFrom = d.From
			}
			state.CurrentCategory = d.To
		case models.ActionReprioritize:
			state.Priority = d.Priority
		case models.ActionUndo:
			state.Status = models.StatusPending
			state.TrashedAt = ""
			state.CompletedAt = ""
			state.PromotedAt = ""
			state.PromotedTo = ""
			state.DeferredAt = ""
			state.LaterAt = ""
			state.UndoneAt = d.At
			state.UndoneAction = d.Undoes
			if d.Undoes == models.ActionRegroup {
				state.CurrentCategory = state.OriginalCategory
				state.RegroupedFrom = ""
			}
		}
	}

	unresolved := 0
	for _, state := range states {
		if state.Status == models.StatusPending {
			unresolved++
		}
	}

	return &models.SessionView{
		SessionArtifact: artifact,
		ItemStates:      states,
		UnresolvedCount: unresolved,
		AllResolved:     unresolved == 0,
	}
}

// ViewApplied returns the view with groups physically reshaped to the
// current category of non-terminal items, and trashed/completed/later items
// extracted into their own lists.
func (s *DispositionService) ViewApplied(sessionID string) (*models.AppliedView, error) {
	view, err := s.View(sessionID)
	if err != nil {
		return nil, err
	}

	regrouped := make(map[string][]models.GroupItem)
	applied := &models.AppliedView{SessionView: view}

	ids := make([]string, 0, len(view.ItemStates))
	for id := range view.ItemStates {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		state := view.ItemStates[id]
		switch state.Status {
		case models.StatusTrashed:
			applied.TrashedItems = append(applied.TrashedItems, state)
		case models.StatusCompleted:
			applied.CompletedItems = append(applied.CompletedItems, state)
		case models.StatusLater:
			applied.LaterItems = append(applied.LaterItems, state)
		default:
			regrouped[state.CurrentCategory] = append(regrouped[state.CurrentCategory], models.GroupItem{
				TabIndex: state.TabIndex,
				Title:    state.Title,
				URL:      state.URL,
			})
		}
	}

	// Reshape a copy; the stored artifact stays untouched.
	reshaped := *view.SessionArtifact
	reshaped.Groups = regrouped
	applied.SessionView = &models.SessionView{
		SessionArtifact: &reshaped,
		ItemStates:      view.ItemStates,
		UnresolvedCount: view.UnresolvedCount,
		AllResolved:     view.AllResolved,
	}
	return applied, nil
}

// UnresolvedCount returns the number of pending items in the session.
func (s *DispositionService) UnresolvedCount(sessionID string) (int, error) {
	view, err := s.View(sessionID)
	if err != nil {
		return 0, err
	}
	return view.UnresolvedCount, nil
}

func mapStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}
