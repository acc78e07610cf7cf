// Package longitudinal aggregates all stored sessions into per-tab
// occurrence records and answers pattern queries over them: recurring
// unfinished tabs, project health, distraction signatures, and themes.
package longitudinal

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/services"
	"github.com/adambalm/memento/pkg/store"
)

// ProjectRef records one session's support for a project.
type ProjectRef struct {
	SessionID string
	Timestamp string
	TabCount  int
}

// Index is the flattened, indexed view over all sessions.
type Index struct {
	Occurrences []models.TabOccurrence
	ByURL       map[string][]int
	ByDomain    map[string][]int
	ByCategory  map[string][]int
	ByProject   map[string][]ProjectRef
	// TitleByURL keeps the most recent title seen for each URL.
	TitleByURL map[string]string
}

// Aggregator builds and caches the index, invalidating it when the sessions
// directory changes on disk. When the directory cannot be watched the cache
// is simply rebuilt on every query.
type Aggregator struct {
	sessions *store.SessionStore

	mu      sync.Mutex
	cached  *Index
	dirty   bool
	watcher *fsnotify.Watcher
}

// NewAggregator creates an aggregator over the session store and tries to
// start a directory watch for cache invalidation.
func NewAggregator(sessions *store.SessionStore) *Aggregator {
	a := &Aggregator{sessions: sessions, dirty: true}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("Session watch unavailable, caching disabled", "error", err)
		return a
	}
	if err := watcher.Add(sessions.BaseDir()); err != nil {
		// The directory may not exist until the first save; rebuild per query.
		watcher.Close()
		return a
	}
	a.watcher = watcher
	go a.watch()
	return a
}

func (a *Aggregator) watch() {
	for {
		select {
		case _, ok := <-a.watcher.Events:
			if !ok {
				return
			}
			a.mu.Lock()
			a.dirty = true
			a.mu.Unlock()
		case _, ok := <-a.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

// Close stops the directory watch.
func (a *Aggregator) Close() {
	if a.watcher != nil {
		a.watcher.Close()
	}
}

// Load returns the current index, rebuilding it when stale.
func (a *Aggregator) Load() (*Index, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	rebuild := a.cached == nil || a.dirty || a.watcher == nil
	if !rebuild {
		return a.cached, nil
	}

	index, err := a.build()
	if err != nil {
		return nil, err
	}
	a.cached = index
	a.dirty = false
	return index, nil
}

func (a *Aggregator) build() (*Index, error) {
	summaries, err := a.sessions.List()
	if err != nil {
		return nil, err
	}

	index := &Index{
		ByURL:      map[string][]int{},
		ByDomain:   map[string][]int{},
		ByCategory: map[string][]int{},
		ByProject:  map[string][]ProjectRef{},
		TitleByURL: map[string]string{},
	}

	for _, summary := range summaries {
		artifact, err := a.sessions.Read(summary.ID)
		if err != nil || artifact == nil {
			slog.Warn("Skipping unreadable session during aggregation", "id", summary.ID, "error", err)
			continue
		}

		view := services.FoldDispositions(artifact)
		for category, items := range artifact.Groups {
			for _, item := range items {
				occurrence := models.TabOccurrence{
					URL:              item.URL,
					Title:            item.Title,
					Category:         category,
					SessionID:        summary.ID,
					SessionTimestamp: artifact.Timestamp,
					SessionMode:      artifact.Meta.Mode,
				}
				if state, ok := view.ItemStates[item.ItemID()]; ok && state.Status != models.StatusPending {
					occurrence.Disposition = state.Status
				}

				pos := len(index.Occurrences)
				index.Occurrences = append(index.Occurrences, occurrence)
				if item.URL != "" {
					index.ByURL[item.URL] = append(index.ByURL[item.URL], pos)
					if _, seen := index.TitleByURL[item.URL]; !seen {
						index.TitleByURL[item.URL] = item.Title
					}
					if host := domainOf(item.URL); host != "" {
						index.ByDomain[host] = append(index.ByDomain[host], pos)
					}
				}
				index.ByCategory[category] = append(index.ByCategory[category], pos)
			}
		}

		if artifact.Thematic != nil {
			for project, evidence := range artifact.Thematic.ProjectSupport {
				index.ByProject[project] = append(index.ByProject[project], ProjectRef{
					SessionID: summary.ID,
					Timestamp: artifact.Timestamp,
					TabCount:  len(evidence),
				})
			}
		}
	}
	return index, nil
}

func domainOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// parseTimestamp tolerates both the artifact millisecond format and plain
// RFC3339.
func parseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05.000Z", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
