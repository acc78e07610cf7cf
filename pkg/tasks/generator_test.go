package tasks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambalm/memento/pkg/longitudinal"
	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/services"
	"github.com/adambalm/memento/pkg/store"
)

type fixture struct {
	sessions     *store.SessionStore
	state        *store.UserState
	agg          *longitudinal.Aggregator
	dispositions *services.DispositionService
	generator    *Generator
	actions      *Actions
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	sessions := store.NewSessionStore(t.TempDir())
	state := store.NewUserState(t.TempDir())
	agg := longitudinal.NewAggregator(sessions)
	t.Cleanup(agg.Close)
	dispositions := services.NewDispositionService(sessions)
	return &fixture{
		sessions:     sessions,
		state:        state,
		agg:          agg,
		dispositions: dispositions,
		generator:    NewGenerator(agg, state),
		actions:      NewActions(agg, dispositions, state),
	}
}

func (f *fixture) saveGhostSessions(t *testing.T, url string) []string {
	t.Helper()
	ids := []string{}
	for _, timestamp := range []string{"2026-07-01T10:00:00.000Z", "2026-07-10T10:00:00.000Z"} {
		id := f.sessions.Save(&models.SessionArtifact{
			Timestamp:       timestamp,
			TotalTabs:       1,
			ClassifiedCount: 1,
			Groups: map[string][]models.GroupItem{
				"Research": {{TabIndex: 1, Title: "Ghost", URL: url}},
			},
		})
		require.NotEmpty(t, id)
		ids = append(ids, id)
	}
	return ids
}

func TestGenerate_GhostTabScoring(t *testing.T) {
	f := newFixture(t)
	f.saveGhostSessions(t, "https://ghost.example/a")

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	ghost := tasks[0]
	assert.Equal(t, models.TaskGhostTab, ghost.Type)
	assert.Equal(t, "https://ghost.example/a", ghost.URL)
	assert.Equal(t, 2, ghost.OpenCount)
	// 10·openCount plus the age term.
	assert.Greater(t, ghost.Score, 20.0)
}

func TestGenerate_BlocklistFiltered(t *testing.T) {
	f := newFixture(t)
	f.saveGhostSessions(t, "https://ghost.example/a")
	require.NoError(t, f.state.AddToBlocklist("https://ghost.example/a"))

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	for _, task := range tasks {
		assert.NotEqual(t, "https://ghost.example/a", task.URL)
	}
}

func TestGenerate_DeferredFiltered(t *testing.T) {
	f := newFixture(t)
	f.saveGhostSessions(t, "https://ghost.example/a")
	require.NoError(t, f.state.DeferURL("https://ghost.example/a", 24*time.Hour, time.Now().UTC()))

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestGenerate_PausedProjectFiltered(t *testing.T) {
	f := newFixture(t)
	id := f.sessions.Save(&models.SessionArtifact{
		Timestamp:       "2026-07-01T10:00:00.000Z",
		TotalTabs:       1,
		ClassifiedCount: 1,
		Groups: map[string][]models.GroupItem{
			"Research": {{TabIndex: 1, Title: "t", URL: "https://p.example/1"}},
		},
		Thematic: &models.ThematicAnalysis{
			ProjectSupport: map[string][]string{"thesis": {"https://p.example/1"}},
		},
	})
	require.NotEmpty(t, id)

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	found := false
	for _, task := range tasks {
		if task.Type == models.TaskProjectRevival && task.Project == "thesis" {
			found = true
		}
	}
	assert.True(t, found)

	require.NoError(t, f.state.PauseProject("thesis", 30*24*time.Hour, time.Now().UTC()))

	tasks, err = f.generator.Generate()
	require.NoError(t, err)
	for _, task := range tasks {
		assert.NotEqual(t, "thesis", task.Project)
	}
}

// Releasing a ghost tab trashes it in every containing
// session, blocklists it, and the generator stops surfacing it.
func TestActions_ReleaseGhostTab(t *testing.T) {
	f := newFixture(t)
	url := "https://ghost.example/a"
	ids := f.saveGhostSessions(t, url)

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, tasks)
	ghost := tasks[0]

	outcome, err := f.actions.Apply(ghost, ActionRelease)
	require.NoError(t, err)
	assert.Contains(t, outcome, "released")

	for _, id := range ids {
		view, err := f.dispositions.View(id)
		require.NoError(t, err)
		state := view.ItemStates[url]
		require.NotNil(t, state)
		assert.Equal(t, models.StatusTrashed, state.Status)
	}

	blocklist, err := f.state.Blocklist()
	require.NoError(t, err)
	assert.True(t, blocklist[url])

	tasks, err = f.generator.Generate()
	require.NoError(t, err)
	for _, task := range tasks {
		assert.NotEqual(t, url, task.URL)
	}

	log, err := f.state.TaskLog()
	require.NoError(t, err)
	require.Len(t, log, 1)
	assert.Equal(t, ActionRelease, log[0].Action)
	assert.Equal(t, models.TaskGhostTab, log[0].TaskType)
}

func TestActions_EngageGhostTab(t *testing.T) {
	f := newFixture(t)
	url := "https://ghost.example/a"
	f.saveGhostSessions(t, url)

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	outcome, err := f.actions.Apply(tasks[0], ActionEngage)
	require.NoError(t, err)
	assert.Contains(t, outcome, "completed in")

	// Most recent session got the complete disposition.
	view, err := f.dispositions.View("2026-07-10T10-00-00Z")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, view.ItemStates[url].Status)

	// And the URL is deferred out of the next generation round.
	tasks, err = f.generator.Generate()
	require.NoError(t, err)
	for _, task := range tasks {
		assert.NotEqual(t, url, task.URL)
	}
}

func TestActions_SkipDefersOneHour(t *testing.T) {
	f := newFixture(t)
	url := "https://ghost.example/a"
	f.saveGhostSessions(t, url)

	tasks, err := f.generator.Generate()
	require.NoError(t, err)
	require.NotEmpty(t, tasks)

	_, err = f.actions.Apply(tasks[0], ActionSkip)
	require.NoError(t, err)

	deferred, err := f.state.DeferredTasks(time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, deferred, 1)
	assert.Equal(t, url, deferred[0].URL)
}

func TestActions_UnknownCombinationRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.actions.Apply(models.Task{ID: "t", Type: models.TaskGhostTab, URL: "https://x"}, "pause")
	assert.True(t, services.IsValidationError(err))
}

func TestActions_Bankruptcy(t *testing.T) {
	f := newFixture(t)

	task := models.Task{
		ID:        "task-b",
		Type:      models.TaskTabBankruptcy,
		StaleURLs: []string{"https://a.example", "https://b.example"},
	}
	outcome, err := f.actions.Apply(task, ActionBankruptcy)
	require.NoError(t, err)
	assert.Contains(t, outcome, "2 stale tabs")

	blocklist, err := f.state.Blocklist()
	require.NoError(t, err)
	assert.True(t, blocklist["https://a.example"])
	assert.True(t, blocklist["https://b.example"])
}
