// Package tasks turns longitudinal signals into ranked attention prompts and
// provides the action handlers that write back into sessions, the blocklist,
// deferrals, and paused projects.
package tasks

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/adambalm/memento/pkg/longitudinal"
	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// bankruptcyThreshold is the number of stale recurring URLs that triggers a
// tab-bankruptcy task.
const bankruptcyThreshold = 5

// staleAfterDays is how old a recurring URL's last sighting must be to count
// as stale for bankruptcy.
const staleAfterDays = 30.0

// Generator produces candidate tasks from longitudinal queries, filtered
// against the release blocklist, active deferrals, and paused projects.
type Generator struct {
	agg   *longitudinal.Aggregator
	state *store.UserState
}

// NewGenerator creates a task generator.
func NewGenerator(agg *longitudinal.Aggregator, state *store.UserState) *Generator {
	return &Generator{agg: agg, state: state}
}

// Generate returns all candidate tasks ranked by score descending.
func (g *Generator) Generate() ([]models.Task, error) {
	now := time.Now().UTC()

	blocklist, err := g.state.Blocklist()
	if err != nil {
		return nil, err
	}
	deferred, err := g.state.DeferredTasks(now)
	if err != nil {
		return nil, err
	}
	deferredURLs := map[string]bool{}
	for _, d := range deferred {
		deferredURLs[d.URL] = true
	}
	paused, err := g.state.PausedProjects(now)
	if err != nil {
		return nil, err
	}
	pausedProjects := map[string]bool{}
	for _, p := range paused {
		pausedProjects[p.Project] = true
	}

	tasks := []models.Task{}

	ghosts, err := g.ghostTabTasks(now, blocklist, deferredURLs)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, ghosts...)

	revivals, err := g.projectRevivalTasks(pausedProjects)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, revivals...)

	if bankruptcy, ok := bankruptcyTask(ghosts, now); ok {
		tasks = append(tasks, bankruptcy)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].Score != tasks[j].Score {
			return tasks[i].Score > tasks[j].Score
		}
		return tasks[i].ID < tasks[j].ID
	})
	return tasks, nil
}

// ghostTabTasks scores every recurring unfinished URL that is neither
// released nor currently deferred: 10·openCount + 2·daysSinceFirstSeen.
func (g *Generator) ghostTabTasks(now time.Time, blocklist, deferredURLs map[string]bool) ([]models.Task, error) {
	recurring, err := g.agg.RecurringUnfinished(2, "all")
	if err != nil {
		return nil, err
	}

	tasks := make([]models.Task, 0, len(recurring))
	for _, ghost := range recurring {
		if blocklist[ghost.URL] || deferredURLs[ghost.URL] {
			continue
		}
		daysSinceFirst := daysSince(ghost.FirstSeen, now)
		daysSinceLast := daysSince(ghost.LastSeen, now)
		tasks = append(tasks, models.Task{
			ID:         taskID(models.TaskGhostTab, ghost.URL),
			Type:       models.TaskGhostTab,
			Title:      fmt.Sprintf("Ghost tab: %s (open %d times)", displayTitle(ghost), ghost.TimesSeen),
			Score:      10*float64(ghost.TimesSeen) + 2*daysSinceFirst,
			URL:        ghost.URL,
			SessionIDs: ghost.SessionIDs,
			OpenCount:  ghost.TimesSeen,
			DaysStale:  daysSinceLast,
		})
	}
	return tasks, nil
}

// projectRevivalTasks scores every non-active, non-paused project:
// 5·daysSinceActive + 2·totalTabs.
func (g *Generator) projectRevivalTasks(pausedProjects map[string]bool) ([]models.Task, error) {
	health, err := g.agg.ProjectHealth(true)
	if err != nil {
		return nil, err
	}

	tasks := []models.Task{}
	for _, project := range health {
		if project.Status == models.ProjectActive || pausedProjects[project.Project] {
			continue
		}
		tasks = append(tasks, models.Task{
			ID:        taskID(models.TaskProjectRevival, project.Project),
			Type:      models.TaskProjectRevival,
			Title:     fmt.Sprintf("Revive project %q (%s, quiet %.0f days)", project.Project, project.Status, project.DaysSinceActive),
			Score:     5*project.DaysSinceActive + 2*float64(project.TotalTabs),
			Project:   project.Project,
			DaysStale: project.DaysSinceActive,
		})
	}
	return tasks, nil
}

// bankruptcyTask proposes declaring tab bankruptcy when enough ghost tabs
// have gone stale: 3·affectedCount + 2·avgDaysStale.
func bankruptcyTask(ghosts []models.Task, now time.Time) (models.Task, bool) {
	stale := []models.Task{}
	totalDays := 0.0
	for _, ghost := range ghosts {
		if ghost.DaysStale >= staleAfterDays {
			stale = append(stale, ghost)
			totalDays += ghost.DaysStale
		}
	}
	if len(stale) < bankruptcyThreshold {
		return models.Task{}, false
	}

	urls := make([]string, 0, len(stale))
	for _, task := range stale {
		urls = append(urls, task.URL)
	}
	avgDays := totalDays / float64(len(stale))

	return models.Task{
		ID:        taskID(models.TaskTabBankruptcy, fmt.Sprintf("%d", len(stale))),
		Type:      models.TaskTabBankruptcy,
		Title:     fmt.Sprintf("Declare tab bankruptcy: %d tabs stale for %.0f+ days", len(stale), staleAfterDays),
		Score:     3*float64(len(stale)) + 2*avgDays,
		StaleURLs: urls,
		OpenCount: len(stale),
		DaysStale: avgDays,
	}, true
}

func taskID(taskType, key string) string {
	return "task-" + uuid.NewSHA1(uuid.NameSpaceOID, []byte(taskType+":"+key)).String()
}

func displayTitle(ghost models.RecurringTab) string {
	if ghost.Title != "" {
		return ghost.Title
	}
	return ghost.URL
}

func daysSince(ts string, now time.Time) float64 {
	t, ok := parseTaskTimestamp(ts)
	if !ok {
		return 0
	}
	days := now.Sub(t).Hours() / 24
	if days < 0 {
		return 0
	}
	return days
}

func parseTaskTimestamp(ts string) (time.Time, bool) {
	for _, layout := range []string{"2006-01-02T15:04:05.000Z", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, ts); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
