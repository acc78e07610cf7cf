package longitudinal

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

func saveSession(t *testing.T, sessions *store.SessionStore, timestamp string, groups map[string][]models.GroupItem, extra func(*models.SessionArtifact)) string {
	t.Helper()
	total := 0
	for _, items := range groups {
		total += len(items)
	}
	artifact := &models.SessionArtifact{
		Timestamp:       timestamp,
		TotalTabs:       total,
		ClassifiedCount: total,
		Groups:          groups,
	}
	if extra != nil {
		extra(artifact)
	}
	id := sessions.Save(artifact)
	require.NotEmpty(t, id)
	return id
}

func item(index int, title, url string) models.GroupItem {
	return models.GroupItem{TabIndex: index, Title: title, URL: url}
}

func TestRecurringUnfinished(t *testing.T) {
	sessions := store.NewSessionStore(t.TempDir())
	agg := NewAggregator(sessions)
	defer agg.Close()

	ghost := "https://ghost.example/article"
	done := "https://done.example/doc"

	saveSession(t, sessions, "2026-07-01T10:00:00.000Z", map[string][]models.GroupItem{
		"Research": {item(1, "Ghost article", ghost), item(2, "Done doc", done)},
	}, nil)
	saveSession(t, sessions, "2026-07-05T10:00:00.000Z", map[string][]models.GroupItem{
		"Research": {item(1, "Ghost article", ghost), item(2, "Done doc", done)},
	}, func(a *models.SessionArtifact) {
		a.Dispositions = []models.Disposition{
			{Action: models.ActionComplete, ItemID: done, At: "2026-07-05T11:00:00Z"},
		}
	})
	// A URL seen only once never recurs.
	saveSession(t, sessions, "2026-07-06T10:00:00.000Z", map[string][]models.GroupItem{
		"News": {item(1, "One-off", "https://once.example")},
	}, nil)

	recurring, err := agg.RecurringUnfinished(2, "all")
	require.NoError(t, err)
	require.Len(t, recurring, 1)

	r := recurring[0]
	assert.Equal(t, ghost, r.URL)
	assert.Equal(t, 2, r.TimesSeen)
	assert.Len(t, r.SessionIDs, 2)
	assert.InDelta(t, 4.0, r.AvgGapDays, 0.01)
	assert.Equal(t, []string{"Research"}, r.Categories)
}

func TestProjectHealth_StatusBuckets(t *testing.T) {
	sessions := store.NewSessionStore(t.TempDir())
	agg := NewAggregator(sessions)
	defer agg.Close()

	now := time.Now().UTC()
	stamp := func(daysAgo int) string {
		return now.AddDate(0, 0, -daysAgo).Format("2006-01-02T15:04:05.000Z")
	}

	projectSession := func(daysAgo int, project string) {
		saveSession(t, sessions, stamp(daysAgo), map[string][]models.GroupItem{
			"Research": {item(1, "tab", fmt.Sprintf("https://p.example/%s/%d", project, daysAgo))},
		}, func(a *models.SessionArtifact) {
			a.Thematic = &models.ThematicAnalysis{
				ProjectSupport: map[string][]string{project: {"evidence"}},
			}
		})
	}

	projectSession(1, "fresh")
	projectSession(7, "cooling")
	projectSession(20, "neglected")
	projectSession(60, "gone")

	health, err := agg.ProjectHealth(true)
	require.NoError(t, err)
	require.Len(t, health, 4)

	byName := map[string]models.ProjectHealth{}
	for _, h := range health {
		byName[h.Project] = h
	}
	assert.Equal(t, models.ProjectActive, byName["fresh"].Status)
	assert.Equal(t, models.ProjectCooling, byName["cooling"].Status)
	assert.Equal(t, models.ProjectNeglected, byName["neglected"].Status)
	assert.Equal(t, models.ProjectAbandoned, byName["gone"].Status)

	// Sorted ascending by days since active.
	assert.Equal(t, "fresh", health[0].Project)
	assert.Equal(t, "gone", health[3].Project)

	health, err = agg.ProjectHealth(false)
	require.NoError(t, err)
	assert.Len(t, health, 3)
}

func TestDistractionSignature(t *testing.T) {
	sessions := store.NewSessionStore(t.TempDir())
	agg := NewAggregator(sessions)
	defer agg.Close()

	// 2026-07-01 was a Wednesday.
	saveSession(t, sessions, "2026-07-01T13:00:00.000Z", map[string][]models.GroupItem{
		"Social Media": {
			item(1, "feed", "https://reddit.com/r/all"),
			item(2, "feed", "https://reddit.com/r/golang"),
		},
		"Research": {item(3, "paper", "https://arxiv.org/abs/1")},
	}, func(a *models.SessionArtifact) { a.Meta.Mode = "results" })
	saveSession(t, sessions, "2026-07-02T09:00:00.000Z", map[string][]models.GroupItem{
		"Entertainment": {item(1, "video", "https://youtube.com/watch?v=1")},
	}, func(a *models.SessionArtifact) { a.Meta.Mode = "launchpad" })

	sig, err := agg.DistractionSignature("all", "")
	require.NoError(t, err)

	assert.Equal(t, 3, sig.TotalTabs, "Research tabs are not distractions")
	assert.Equal(t, 2, sig.ByDomain["reddit.com"])
	assert.Equal(t, 1, sig.ByDomain["youtube.com"])
	assert.Equal(t, 2, sig.ByHour[13])
	assert.Equal(t, 13, sig.PeakHour)
	assert.Equal(t, 3, int(time.Wednesday), "calendar sanity")
	assert.Equal(t, 2, sig.ByDay[int(time.Wednesday)])
	assert.Equal(t, 2, sig.ByMode["results"])

	sig, err = agg.DistractionSignature("all", "launchpad")
	require.NoError(t, err)
	assert.Equal(t, 1, sig.TotalTabs)
}
