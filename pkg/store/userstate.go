package store

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adambalm/memento/pkg/models"
)

// UserState is the user-scoped persistent state under ~/.memento: the
// release blocklist, deferred tasks, paused projects, the append-only task
// log, and the optional user context file. Each file has a single writer at
// a time, guarded by one mutex per file.
type UserState struct {
	dir string

	blocklistMu sync.Mutex
	deferredMu  sync.Mutex
	pausedMu    sync.Mutex
	taskLogMu   sync.Mutex
}

// NewUserState creates a user-state store rooted at dir.
func NewUserState(dir string) *UserState {
	return &UserState{dir: dir}
}

func (u *UserState) blocklistPath() string {
	return filepath.Join(u.dir, "released-urls.json")
}

func (u *UserState) deferredPath() string {
	return filepath.Join(u.dir, "deferred-tasks.json")
}

func (u *UserState) pausedPath() string {
	return filepath.Join(u.dir, "paused-projects.json")
}

func (u *UserState) taskLogPath() string {
	return filepath.Join(u.dir, "task-log.json")
}

// Blocklist returns the set of released URLs. A missing file is an empty set.
func (u *UserState) Blocklist() (map[string]bool, error) {
	var urls []string
	if err := ReadJSONFile(u.blocklistPath(), &urls); err != nil {
		if os.IsNotExist(err) {
			return map[string]bool{}, nil
		}
		return nil, err
	}
	set := make(map[string]bool, len(urls))
	for _, url := range urls {
		set[url] = true
	}
	return set, nil
}

// AddToBlocklist appends urls to the release blocklist, deduplicating.
func (u *UserState) AddToBlocklist(urls ...string) error {
	u.blocklistMu.Lock()
	defer u.blocklistMu.Unlock()

	var existing []string
	if err := ReadJSONFile(u.blocklistPath(), &existing); err != nil && !os.IsNotExist(err) {
		return err
	}
	seen := make(map[string]bool, len(existing))
	for _, url := range existing {
		seen[url] = true
	}
	for _, url := range urls {
		if !seen[url] {
			existing = append(existing, url)
			seen[url] = true
		}
	}
	return WriteJSONFile(u.blocklistPath(), existing)
}

// DeferredTasks returns currently deferred URLs, dropping expired entries
// from the returned slice (the file itself is pruned by the cleanup sweep).
func (u *UserState) DeferredTasks(now time.Time) ([]models.DeferredTask, error) {
	var all []models.DeferredTask
	if err := ReadJSONFile(u.deferredPath(), &all); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	active := all[:0]
	for _, d := range all {
		until, err := time.Parse(time.RFC3339, d.Until)
		if err != nil || until.After(now) {
			active = append(active, d)
		}
	}
	return active, nil
}

// DeferURL defers a URL for the given duration, replacing any existing
// deferral for the same URL.
func (u *UserState) DeferURL(url string, d time.Duration, now time.Time) error {
	u.deferredMu.Lock()
	defer u.deferredMu.Unlock()

	var all []models.DeferredTask
	if err := ReadJSONFile(u.deferredPath(), &all); err != nil && !os.IsNotExist(err) {
		return err
	}
	kept := all[:0]
	for _, entry := range all {
		if entry.URL != url {
			kept = append(kept, entry)
		}
	}
	kept = append(kept, models.DeferredTask{
		URL:        url,
		DeferredAt: now.UTC().Format(time.RFC3339),
		Until:      now.Add(d).UTC().Format(time.RFC3339),
	})
	return WriteJSONFile(u.deferredPath(), kept)
}

// PausedProjects returns currently paused projects, excluding expired ones.
func (u *UserState) PausedProjects(now time.Time) ([]models.PausedProject, error) {
	var all []models.PausedProject
	if err := ReadJSONFile(u.pausedPath(), &all); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	active := all[:0]
	for _, p := range all {
		until, err := time.Parse(time.RFC3339, p.Until)
		if err != nil || until.After(now) {
			active = append(active, p)
		}
	}
	return active, nil
}

// PauseProject pauses a project for the given duration.
func (u *UserState) PauseProject(project string, d time.Duration, now time.Time) error {
	u.pausedMu.Lock()
	defer u.pausedMu.Unlock()

	var all []models.PausedProject
	if err := ReadJSONFile(u.pausedPath(), &all); err != nil && !os.IsNotExist(err) {
		return err
	}
	kept := all[:0]
	for _, entry := range all {
		if entry.Project != project {
			kept = append(kept, entry)
		}
	}
	kept = append(kept, models.PausedProject{
		Project:  project,
		PausedAt: now.UTC().Format(time.RFC3339),
		Until:    now.Add(d).UTC().Format(time.RFC3339),
	})
	return WriteJSONFile(u.pausedPath(), kept)
}

// AppendTaskLog appends one entry to the append-only task log.
func (u *UserState) AppendTaskLog(entry models.TaskLogEntry) error {
	u.taskLogMu.Lock()
	defer u.taskLogMu.Unlock()

	var log []models.TaskLogEntry
	if err := ReadJSONFile(u.taskLogPath(), &log); err != nil && !os.IsNotExist(err) {
		return err
	}
	log = append(log, entry)
	return WriteJSONFile(u.taskLogPath(), log)
}

// TaskLog returns the full task log.
func (u *UserState) TaskLog() ([]models.TaskLogEntry, error) {
	var log []models.TaskLogEntry
	if err := ReadJSONFile(u.taskLogPath(), &log); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return log, nil
}

// PruneExpired drops expired deferrals and paused projects from their files.
// Returns how many entries were removed.
func (u *UserState) PruneExpired(now time.Time) int {
	removed := 0

	u.deferredMu.Lock()
	var deferred []models.DeferredTask
	if err := ReadJSONFile(u.deferredPath(), &deferred); err == nil {
		kept := deferred[:0]
		for _, d := range deferred {
			until, err := time.Parse(time.RFC3339, d.Until)
			if err == nil && !until.After(now) {
				removed++
				continue
			}
			kept = append(kept, d)
		}
		if len(kept) != len(deferred) {
			if err := WriteJSONFile(u.deferredPath(), kept); err != nil {
				slog.Error("Failed to prune deferred tasks", "error", err)
			}
		}
	}
	u.deferredMu.Unlock()

	u.pausedMu.Lock()
	var paused []models.PausedProject
	if err := ReadJSONFile(u.pausedPath(), &paused); err == nil {
		kept := paused[:0]
		for _, p := range paused {
			until, err := time.Parse(time.RFC3339, p.Until)
			if err == nil && !until.After(now) {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) != len(paused) {
			if err := WriteJSONFile(u.pausedPath(), kept); err != nil {
				slog.Error("Failed to prune paused projects", "error", err)
			}
		}
	}
	u.pausedMu.Unlock()

	return removed
}

// UserContextStaleAfter is how long a generated context file stays fresh.
const UserContextStaleAfter = 24 * time.Hour

// ReadUserContext reads the optional context file. Returns the context, a
// staleness flag, and an error only for real IO/parse failures — a missing
// file yields (nil, false, nil).
func (u *UserState) ReadUserContext(path string, now time.Time) (*models.UserContext, bool, error) {
	var uc models.UserContext
	if err := ReadJSONFile(path, &uc); err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	stale := true
	if generated, err := time.Parse(time.RFC3339, uc.Generated); err == nil {
		stale = now.Sub(generated) > UserContextStaleAfter
	}
	return &uc, stale, nil
}
