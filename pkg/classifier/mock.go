package classifier

import (
	"fmt"
	"sort"
	"strings"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// categoryPattern holds the URL and keyword substrings that vote for one
// category in the deterministic fallback.
type categoryPattern struct {
	category string
	urls     []string
	keywords []string
}

// mockPatterns is evaluated in order; ties go to the earliest entry.
var mockPatterns = []categoryPattern{
	{"Development", []string{"github.com", "stackoverflow.com", "gitlab.com", "localhost", "pkg.go.dev", "developer."}, []string{"api", "docs", "error", "code", "debug", "repository"}},
	{"Research", []string{"scholar.google", "arxiv.org", "wikipedia.org", "jstor.org"}, []string{"paper", "study", "research", "analysis", "thesis"}},
	{"Shopping", []string{"amazon.", "ebay.", "etsy.com", "cart", "checkout"}, []string{"buy", "price", "order", "shipping", "deal"}},
	{"Social Media", []string{"twitter.com", "x.com", "facebook.com", "instagram.com", "reddit.com", "linkedin.com", "bsky.app"}, []string{"feed", "follow", "post", "thread"}},
	{"Entertainment", []string{"youtube.com", "netflix.com", "twitch.tv", "spotify.com", "hulu.com"}, []string{"watch", "episode", "stream", "playlist", "trailer"}},
	{"News", []string{"nytimes.com", "bbc.", "cnn.com", "theguardian.com", "news."}, []string{"breaking", "report", "headline", "politics"}},
	{"Communication", []string{"mail.google.com", "outlook.", "slack.com", "discord.com", "zoom.us"}, []string{"inbox", "message", "meeting", "chat"}},
	{"Productivity", []string{"notion.so", "trello.com", "asana.com", "calendar.google.com", "todoist.com"}, []string{"task", "project", "schedule", "plan", "notes"}},
	{"Education", []string{"coursera.org", "udemy.com", "khanacademy.org", "edx.org"}, []string{"course", "lesson", "tutorial", "learn"}},
	{"Transaction (Protected)", []string{"pay.", "checkout.", "banking", "paypal.com", "stripe.com"}, []string{"payment", "invoice", "transfer", "confirm purchase"}},
	{"Academic (Synthesis)", []string{"zotero.org", "obsidian.md", "roamresearch.com"}, []string{"citation", "bibliography", "synthesis", "literature review"}},
	{"Health", []string{"webmd.com", "mayoclinic.org", "nih.gov", "myfitnesspal.com"}, []string{"symptom", "doctor", "fitness", "health"}},
	{"Travel", []string{"booking.com", "airbnb.com", "expedia.com", "maps.google.com", "kayak.com"}, []string{"flight", "hotel", "itinerary", "trip"}},
}

// mockClassify is the deterministic keyword fallback used when pass 1 cannot
// be recovered. Per tab: score = 3·URL-hit + 2·title-hit + 1·content-hit;
// the highest-scoring category wins, ties resolved by enumeration order.
func mockClassify(tabs []models.Tab) *models.SessionArtifact {
	groups := make(map[string][]models.GroupItem)
	perTab := make(map[string]models.TabReasoning)

	for i, tab := range tabs {
		category, signals := mockCategoryFor(tab)
		index := i + 1
		item := models.GroupItem{TabIndex: index, Title: tab.Title, URL: tab.URL}
		groups[category] = append(groups[category], item)
		perTab[fmt.Sprintf("%d", index)] = models.TabReasoning{
			Category:   category,
			Signals:    signals,
			Confidence: "low",
			Title:      tab.Title,
			URL:        tab.URL,
		}
	}

	return &models.SessionArtifact{
		Timestamp:       store.NowTimestamp(),
		TotalTabs:       len(tabs),
		ClassifiedCount: len(tabs),
		Narrative:       mockNarrative(groups),
		Groups:          groups,
		Reasoning: models.Reasoning{
			PerTab:            perTab,
			OverallConfidence: "low",
		},
		Visualization: &models.Visualization{Mermaid: nil},
		Thematic:      &models.ThematicAnalysis{},
		Dispositions:  []models.Disposition{},
	}
}

func mockCategoryFor(tab models.Tab) (string, []string) {
	url := strings.ToLower(tab.URL)
	title := strings.ToLower(tab.Title)
	content := strings.ToLower(tab.Content)

	best := "Other"
	bestScore := 0
	var bestSignals []string

	for _, pattern := range mockPatterns {
		score := 0
		var signals []string
		for _, u := range pattern.urls {
			if strings.Contains(url, u) {
				score += 3
				signals = append(signals, "url:"+u)
			}
		}
		for _, kw := range pattern.keywords {
			if strings.Contains(title, kw) {
				score += 2
				signals = append(signals, "title:"+kw)
			}
			if content != "" && strings.Contains(content, kw) {
				score++
				signals = append(signals, "content:"+kw)
			}
		}
		if score > bestScore {
			best = pattern.category
			bestScore = score
			bestSignals = signals
		}
	}
	return best, bestSignals
}

func mockNarrative(groups map[string][]models.GroupItem) string {
	if len(groups) == 0 {
		return "Empty session."
	}
	type sized struct {
		category string
		count    int
	}
	sizes := make([]sized, 0, len(groups))
	total := 0
	for category, items := range groups {
		sizes = append(sizes, sized{category, len(items)})
		total += len(items)
	}
	sort.Slice(sizes, func(i, j int) bool {
		if sizes[i].count != sizes[j].count {
			return sizes[i].count > sizes[j].count
		}
		return sizes[i].category < sizes[j].category
	})

	parts := make([]string, 0, len(sizes))
	for _, s := range sizes {
		parts = append(parts, fmt.Sprintf("%s (%d)", s.category, s.count))
	}
	return fmt.Sprintf("%d tabs across %d groups: %s.", total, len(sizes), strings.Join(parts, ", "))
}
