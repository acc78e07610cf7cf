package tasks

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/adambalm/memento/pkg/longitudinal"
	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/services"
	"github.com/adambalm/memento/pkg/store"
)

// Action names accepted by Apply.
const (
	ActionEngage     = "engage"
	ActionRelease    = "release"
	ActionDefer      = "defer"
	ActionPause      = "pause"
	ActionBankruptcy = "bankruptcy"
	ActionSkip       = "skip"
)

// Default durations for deferral-style actions.
const (
	DefaultDeferHours = 24
	DefaultPauseDays  = 30
	skipDefer         = time.Hour
)

// Actions is the write path for tasks: every action lands in durable state
// (dispositions, blocklist, deferrals, paused projects) and appends to the
// user-scoped task log.
type Actions struct {
	agg          *longitudinal.Aggregator
	dispositions *services.DispositionService
	state        *store.UserState
}

// NewActions creates the task action handler.
func NewActions(agg *longitudinal.Aggregator, dispositions *services.DispositionService, state *store.UserState) *Actions {
	return &Actions{agg: agg, dispositions: dispositions, state: state}
}

// Apply dispatches an action against a task and logs the outcome. Unknown
// combinations are validation errors.
func (a *Actions) Apply(task models.Task, action string) (string, error) {
	var outcome string
	var err error

	switch {
	case action == ActionSkip:
		outcome, err = a.skip(task)
	case task.Type == models.TaskGhostTab && action == ActionEngage:
		outcome, err = a.engageGhostTab(task)
	case task.Type == models.TaskGhostTab && action == ActionRelease:
		outcome, err = a.releaseGhostTab(task)
	case task.Type == models.TaskGhostTab && action == ActionDefer:
		outcome, err = a.deferGhostTab(task, DefaultDeferHours)
	case task.Type == models.TaskProjectRevival && action == ActionEngage:
		outcome, err = a.engageProject(task)
	case task.Type == models.TaskProjectRevival && action == ActionPause:
		outcome, err = a.pauseProject(task, DefaultPauseDays)
	case task.Type == models.TaskTabBankruptcy && action == ActionBankruptcy:
		outcome, err = a.declareBankruptcy(task)
	default:
		return "", services.NewValidationError("action",
			fmt.Sprintf("action %q is not valid for task type %q", action, task.Type))
	}
	if err != nil {
		return "", err
	}

	entry := models.TaskLogEntry{
		TaskID:   task.ID,
		TaskType: task.Type,
		Action:   action,
		At:       time.Now().UTC().Format(time.RFC3339),
		Task:     &task,
		Outcome:  outcome,
	}
	if logErr := a.state.AppendTaskLog(entry); logErr != nil {
		slog.Warn("Failed to append task log", "task", task.ID, "error", logErr)
	}
	return outcome, nil
}

// sessionsContaining returns the ids of sessions holding the URL, most
// recent first.
func (a *Actions) sessionsContaining(url string) ([]string, error) {
	index, err := a.agg.Load()
	if err != nil {
		return nil, err
	}
	positions := index.ByURL[url]
	byID := map[string]string{}
	for _, pos := range positions {
		occ := index.Occurrences[pos]
		byID[occ.SessionID] = occ.SessionTimestamp
	}
	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return byID[ids[i]] > byID[ids[j]] })
	return ids, nil
}

// engageGhostTab marks the URL done in its most recent session and hides it
// for a day so the prompt does not immediately resurface.
func (a *Actions) engageGhostTab(task models.Task) (string, error) {
	sessions, err := a.sessionsContaining(task.URL)
	if err != nil {
		return "", err
	}
	if len(sessions) == 0 {
		return "", fmt.Errorf("%w: no session contains %s", services.ErrNotFound, task.URL)
	}
	if _, err := a.dispositions.Append(sessions[0], models.Disposition{
		Action: models.ActionComplete,
		ItemID: task.URL,
	}); err != nil {
		return "", err
	}
	if err := a.state.DeferURL(task.URL, DefaultDeferHours*time.Hour, time.Now().UTC()); err != nil {
		return "", err
	}
	return fmt.Sprintf("completed in %s, deferred %dh", sessions[0], DefaultDeferHours), nil
}

// releaseGhostTab trashes the URL in every session that contains it and adds
// it to the release blocklist so the generator never surfaces it again.
func (a *Actions) releaseGhostTab(task models.Task) (string, error) {
	sessions, err := a.sessionsContaining(task.URL)
	if err != nil {
		return "", err
	}
	for _, sessionID := range sessions {
		if _, err := a.dispositions.Append(sessionID, models.Disposition{
			Action: models.ActionTrash,
			ItemID: task.URL,
		}); err != nil {
			return "", fmt.Errorf("failed to trash %s in %s: %w", task.URL, sessionID, err)
		}
	}
	if err := a.state.AddToBlocklist(task.URL); err != nil {
		return "", err
	}
	return fmt.Sprintf("trashed in %d sessions, released", len(sessions)), nil
}

func (a *Actions) deferGhostTab(task models.Task, hours int) (string, error) {
	if hours <= 0 {
		hours = DefaultDeferHours
	}
	if err := a.state.DeferURL(task.URL, time.Duration(hours)*time.Hour, time.Now().UTC()); err != nil {
		return "", err
	}
	return fmt.Sprintf("deferred %dh", hours), nil
}

// engageProject locates the most recent session supporting the project; the
// log entry is the durable record of the engagement.
func (a *Actions) engageProject(task models.Task) (string, error) {
	index, err := a.agg.Load()
	if err != nil {
		return "", err
	}
	refs := index.ByProject[task.Project]
	if len(refs) == 0 {
		return "", fmt.Errorf("%w: no session mentions project %q", services.ErrNotFound, task.Project)
	}
	latest := refs[0]
	for _, ref := range refs[1:] {
		if ref.Timestamp > latest.Timestamp {
			latest = ref
		}
	}
	return fmt.Sprintf("engaged via session %s", latest.SessionID), nil
}

func (a *Actions) pauseProject(task models.Task, days int) (string, error) {
	if days <= 0 {
		days = DefaultPauseDays
	}
	if err := a.state.PauseProject(task.Project, time.Duration(days)*24*time.Hour, time.Now().UTC()); err != nil {
		return "", err
	}
	return fmt.Sprintf("paused %dd", days), nil
}

// declareBankruptcy releases every stale URL carried by the task.
func (a *Actions) declareBankruptcy(task models.Task) (string, error) {
	if len(task.StaleURLs) == 0 {
		return "", services.NewValidationError("staleUrls", "bankruptcy task carries no URLs")
	}
	if err := a.state.AddToBlocklist(task.StaleURLs...); err != nil {
		return "", err
	}
	return fmt.Sprintf("released %d stale tabs", len(task.StaleURLs)), nil
}

// skip hides the task for an hour: a URL-bearing task defers its URL, a
// project task pauses the project.
func (a *Actions) skip(task models.Task) (string, error) {
	now := time.Now().UTC()
	if task.URL != "" {
		if err := a.state.DeferURL(task.URL, skipDefer, now); err != nil {
			return "", err
		}
		return "skipped 1h", nil
	}
	if task.Project != "" {
		if err := a.state.PauseProject(task.Project, skipDefer, now); err != nil {
			return "", err
		}
		return "skipped 1h", nil
	}
	for _, url := range task.StaleURLs {
		if err := a.state.DeferURL(url, skipDefer, now); err != nil {
			return "", err
		}
	}
	return "skipped 1h", nil
}
