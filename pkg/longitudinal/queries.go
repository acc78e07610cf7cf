package longitudinal

import (
	"sort"
	"strings"
	"time"

	"github.com/adambalm/memento/pkg/models"
)

// distractionCategories is the fixed set of category names counted by the
// distraction signature.
var distractionCategories = map[string]bool{
	"Social Media":  true,
	"Entertainment": true,
	"News":          true,
	"Shopping":      true,
}

// cutoffFor maps a time-range label ("all", "7d", "30d", "90d") to an
// inclusive lower bound. Unknown labels mean no bound.
func cutoffFor(timeRange string, now time.Time) (time.Time, bool) {
	switch strings.ToLower(timeRange) {
	case "", "all":
		return time.Time{}, false
	case "7d":
		return now.AddDate(0, 0, -7), true
	case "30d":
		return now.AddDate(0, 0, -30), true
	case "90d":
		return now.AddDate(0, 0, -90), true
	default:
		return time.Time{}, false
	}
}

// RecurringUnfinished returns URLs seen in at least minOccurrences distinct
// sessions and never completed in any, with the average gap in days between
// successive occurrences, sorted by timesSeen descending.
func (a *Aggregator) RecurringUnfinished(minOccurrences int, timeRange string) ([]models.RecurringTab, error) {
	if minOccurrences <= 0 {
		minOccurrences = 2
	}
	index, err := a.Load()
	if err != nil {
		return nil, err
	}
	cutoff, bounded := cutoffFor(timeRange, time.Now().UTC())

	recurring := []models.RecurringTab{}
	for url, positions := range index.ByURL {
		sessions := map[string]bool{}
		categories := map[string]bool{}
		var times []time.Time
		completed := false
		first, last := "", ""

		for _, pos := range positions {
			occ := index.Occurrences[pos]
			t, ok := parseTimestamp(occ.SessionTimestamp)
			if !ok {
				continue
			}
			if bounded && t.Before(cutoff) {
				continue
			}
			if occ.Disposition == models.StatusCompleted {
				completed = true
			}
			if !sessions[occ.SessionID] {
				sessions[occ.SessionID] = true
				times = append(times, t)
			}
			categories[occ.Category] = true
			if first == "" || occ.SessionTimestamp < first {
				first = occ.SessionTimestamp
			}
			if occ.SessionTimestamp > last {
				last = occ.SessionTimestamp
			}
		}

		if completed || len(sessions) < minOccurrences {
			continue
		}

		sort.Slice(times, func(i, j int) bool { return times[i].Before(times[j]) })
		gapDays := 0.0
		if len(times) > 1 {
			total := 0.0
			for i := 1; i < len(times); i++ {
				total += times[i].Sub(times[i-1]).Hours() / 24
			}
			gapDays = total / float64(len(times)-1)
		}

		sessionIDs := make([]string, 0, len(sessions))
		for id := range sessions {
			sessionIDs = append(sessionIDs, id)
		}
		sort.Strings(sessionIDs)

		recurring = append(recurring, models.RecurringTab{
			URL:        url,
			Title:      index.TitleByURL[url],
			TimesSeen:  len(sessions),
			SessionIDs: sessionIDs,
			FirstSeen:  first,
			LastSeen:   last,
			AvgGapDays: gapDays,
			Categories: sortedKeys(categories),
		})
	}

	sort.Slice(recurring, func(i, j int) bool {
		if recurring[i].TimesSeen != recurring[j].TimesSeen {
			return recurring[i].TimesSeen > recurring[j].TimesSeen
		}
		return recurring[i].URL < recurring[j].URL
	})
	return recurring, nil
}

// ProjectHealth aggregates every project's activity and classifies it by
// days since last seen: ≤3 active, ≤14 cooling, ≤30 neglected, else
// abandoned. Results sort ascending by daysSinceActive.
func (a *Aggregator) ProjectHealth(includeAbandoned bool) ([]models.ProjectHealth, error) {
	index, err := a.Load()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	health := []models.ProjectHealth{}
	for project, refs := range index.ByProject {
		first, last := "", ""
		totalTabs := 0
		sessions := map[string]bool{}
		var lastTime time.Time

		for _, ref := range refs {
			sessions[ref.SessionID] = true
			totalTabs += ref.TabCount
			if first == "" || ref.Timestamp < first {
				first = ref.Timestamp
			}
			if ref.Timestamp > last {
				last = ref.Timestamp
				if t, ok := parseTimestamp(ref.Timestamp); ok {
					lastTime = t
				}
			}
		}

		days := 0.0
		if !lastTime.IsZero() {
			days = now.Sub(lastTime).Hours() / 24
		}
		status := models.ProjectAbandoned
		switch {
		case days <= 3:
			status = models.ProjectActive
		case days <= 14:
			status = models.ProjectCooling
		case days <= 30:
			status = models.ProjectNeglected
		}
		if status == models.ProjectAbandoned && !includeAbandoned {
			continue
		}

		health = append(health, models.ProjectHealth{
			Project:         project,
			FirstSeen:       first,
			LastSeen:        last,
			TotalSessions:   len(sessions),
			TotalTabs:       totalTabs,
			DaysSinceActive: days,
			Status:          status,
		})
	}

	sort.Slice(health, func(i, j int) bool {
		if health[i].DaysSinceActive != health[j].DaysSinceActive {
			return health[i].DaysSinceActive < health[j].DaysSinceActive
		}
		return health[i].Project < health[j].Project
	})
	return health, nil
}

// DistractionSignature profiles distraction-category tabs: per-domain
// counts, hour-of-day and day-of-week distributions, per-session-mode
// counts, and the overall peaks.
func (a *Aggregator) DistractionSignature(timeRange, modeFilter string) (*models.DistractionSignature, error) {
	index, err := a.Load()
	if err != nil {
		return nil, err
	}
	cutoff, bounded := cutoffFor(timeRange, time.Now().UTC())

	sig := &models.DistractionSignature{
		ByDomain: map[string]int{},
		ByMode:   map[string]int{},
	}

	for _, occ := range index.Occurrences {
		if !distractionCategories[occ.Category] {
			continue
		}
		if modeFilter != "" && occ.SessionMode != modeFilter {
			continue
		}
		t, ok := parseTimestamp(occ.SessionTimestamp)
		if !ok {
			continue
		}
		if bounded && t.Before(cutoff) {
			continue
		}

		sig.TotalTabs++
		if host := domainOf(occ.URL); host != "" {
			sig.ByDomain[host]++
		}
		sig.ByHour[t.Hour()]++
		sig.ByDay[int(t.Weekday())]++
		if occ.SessionMode != "" {
			sig.ByMode[occ.SessionMode]++
		}
	}

	for hour, count := range sig.ByHour {
		if count > sig.ByHour[sig.PeakHour] {
			sig.PeakHour = hour
		}
	}
	for day, count := range sig.ByDay {
		if count > sig.ByDay[sig.PeakDay] {
			sig.PeakDay = day
		}
	}
	return sig, nil
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
