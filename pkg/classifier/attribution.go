package classifier

import (
	"strings"

	"github.com/adambalm/memento/pkg/models"
)

// domainSignals is a small fixed list of recognizable hosts used by the
// debug-mode attribution chain.
var domainSignals = map[string]string{
	"github.com":           "code hosting",
	"stackoverflow.com":    "programming Q&A",
	"scholar.google.com":   "academic search",
	"arxiv.org":            "preprint archive",
	"youtube.com":          "video",
	"amazon.com":           "shopping",
	"reddit.com":           "forum",
	"wikipedia.org":        "encyclopedia",
	"news.ycombinator.com": "tech news",
}

// buildAttribution computes a deterministic attribution chain per classified
// tab by matching project keywords against title and content and by
// recognizing known domains. Diagnostic only — it never changes the
// classification.
func buildAttribution(tabs []models.Tab, groups map[string][]models.GroupItem, projects []models.Project) []models.AttributionEntry {
	categoryByIndex := make(map[int]string)
	for category, items := range groups {
		for _, item := range items {
			categoryByIndex[item.TabIndex] = category
		}
	}

	entries := make([]models.AttributionEntry, 0, len(tabs))
	for i, tab := range tabs {
		index := i + 1
		category, ok := categoryByIndex[index]
		if !ok {
			continue
		}

		var chain []string
		title := strings.ToLower(tab.Title)
		content := strings.ToLower(tab.Content)
		for _, project := range projects {
			for _, keyword := range project.Keywords {
				kw := strings.ToLower(keyword)
				if kw == "" {
					continue
				}
				if strings.Contains(title, kw) {
					chain = append(chain, "project:"+project.Name+" keyword:"+keyword+" in title")
				} else if content != "" && strings.Contains(content, kw) {
					chain = append(chain, "project:"+project.Name+" keyword:"+keyword+" in content")
				}
			}
		}
		url := strings.ToLower(tab.URL)
		for host, signal := range domainSignals {
			if strings.Contains(url, host) {
				chain = append(chain, "domain:"+host+" ("+signal+")")
			}
		}
		if len(chain) == 0 {
			chain = []string{"no deterministic signals"}
		}

		entries = append(entries, models.AttributionEntry{
			TabIndex: index,
			Category: category,
			Chain:    chain,
		})
	}
	return entries
}
