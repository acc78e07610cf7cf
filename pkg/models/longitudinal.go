package models

// TabOccurrence is one tab flattened out of a stored session.
type TabOccurrence struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	Category         string `json:"category"`
	SessionID        string `json:"sessionId"`
	SessionTimestamp string `json:"sessionTimestamp"`
	SessionMode      string `json:"sessionMode,omitempty"`
	Disposition      string `json:"disposition,omitempty"`
}

// RecurringTab is a URL seen unfinished across multiple sessions.
type RecurringTab struct {
	URL        string   `json:"url"`
	Title      string   `json:"title"`
	TimesSeen  int      `json:"timesSeen"`
	SessionIDs []string `json:"sessionIds"`
	FirstSeen  string   `json:"firstSeen"`
	LastSeen   string   `json:"lastSeen"`
	AvgGapDays float64  `json:"avgGapDays"`
	Categories []string `json:"categories"`
}

// Project health statuses by days since last activity.
const (
	ProjectActive    = "active"
	ProjectCooling   = "cooling"
	ProjectNeglected = "neglected"
	ProjectAbandoned = "abandoned"
)

// ProjectHealth aggregates one project's presence across sessions.
type ProjectHealth struct {
	Project         string  `json:"project"`
	FirstSeen       string  `json:"firstSeen"`
	LastSeen        string  `json:"lastSeen"`
	TotalSessions   int     `json:"totalSessions"`
	TotalTabs       int     `json:"totalTabs"`
	DaysSinceActive float64 `json:"daysSinceActive"`
	Status          string  `json:"status"`
}

// DistractionSignature profiles when and where distraction categories show up.
type DistractionSignature struct {
	TotalTabs int            `json:"totalTabs"`
	ByDomain  map[string]int `json:"byDomain"`
	ByHour    [24]int        `json:"byHour"`
	ByDay     [7]int         `json:"byDay"`
	ByMode    map[string]int `json:"byMode"`
	PeakHour  int            `json:"peakHour"`
	PeakDay   int            `json:"peakDay"`
}

// Theme statuses driven by user feedback.
const (
	ThemeActive    = "active"
	ThemeConfirmed = "confirmed"
	ThemeDismissed = "dismissed"
	ThemeSaved     = "saved"
	ThemeArchived  = "archived"
)

// Theme is a cluster of recurring URLs sharing keywords and session
// co-occurrence.
type Theme struct {
	ID               string       `json:"id"`
	Label            string       `json:"label"`
	URLs             []string     `json:"urls"`
	Keywords         []string     `json:"keywords"`
	Categories       []string     `json:"categories"`
	Score            float64      `json:"score"`
	Status           string       `json:"status"`
	FirstSeen        string       `json:"firstSeen"`
	LastSeen         string       `json:"lastSeen"`
	RelatedInterests []string     `json:"relatedInterests,omitempty"`
	Corrections      []Correction `json:"corrections,omitempty"`
	RenamedTo        string       `json:"renamedTo,omitempty"`
}

// Task types surfaced by the generator.
const (
	TaskGhostTab       = "ghost_tab"
	TaskProjectRevival = "project_revival"
	TaskTabBankruptcy  = "tab_bankruptcy"
)

// Task is a ranked attention prompt with a concrete action path.
type Task struct {
	ID         string   `json:"id"`
	Type       string   `json:"type"`
	Title      string   `json:"title"`
	Score      float64  `json:"score"`
	URL        string   `json:"url,omitempty"`
	Project    string   `json:"project,omitempty"`
	SessionIDs []string `json:"sessionIds,omitempty"`
	StaleURLs  []string `json:"staleUrls,omitempty"`
	OpenCount  int      `json:"openCount,omitempty"`
	DaysStale  float64  `json:"daysStale,omitempty"`
}

// TaskLogEntry is one row of the user-scoped append-only task log.
type TaskLogEntry struct {
	TaskID   string `json:"taskId"`
	TaskType string `json:"taskType"`
	Action   string `json:"action"`
	At       string `json:"at"`
	Task     *Task  `json:"task,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

// DeferredTask is a URL temporarily hidden from task generation.
type DeferredTask struct {
	URL        string `json:"url"`
	DeferredAt string `json:"deferredAt"`
	Until      string `json:"until"`
}

// PausedProject is a project temporarily excluded from revival tasks.
type PausedProject struct {
	Project  string `json:"project"`
	PausedAt string `json:"pausedAt"`
	Until    string `json:"until"`
}
