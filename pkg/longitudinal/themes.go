package longitudinal

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// Theme feedback actions.
const (
	FeedbackConfirm      = "confirm"
	FeedbackCorrect      = "correct"
	FeedbackDismiss      = "dismiss"
	FeedbackSave         = "save"
	FeedbackArchive      = "archive"
	FeedbackKeepWatching = "keep-watching"
	FeedbackRename       = "rename"
)

// CorrectionSource supplies user corrections for theme enrichment.
type CorrectionSource interface {
	Corrections() ([]models.Correction, error)
}

// themeFeedback is the persisted per-theme feedback record.
type themeFeedback struct {
	Status    string `json:"status"`
	RenamedTo string `json:"renamedTo,omitempty"`
	At        string `json:"at"`
}

// ThemeDetector clusters recurring URLs into themes by keyword overlap and
// session co-occurrence.
type ThemeDetector struct {
	agg         *Aggregator
	interests   *InterestLoader
	corrections CorrectionSource

	feedbackPath string
	feedbackMu   sync.Mutex

	// MinClusterSize is the smallest keyword group considered (default 2).
	MinClusterSize int
}

// NewThemeDetector creates a detector. interests and corrections may be nil.
func NewThemeDetector(agg *Aggregator, interests *InterestLoader, corrections CorrectionSource, feedbackPath string) *ThemeDetector {
	return &ThemeDetector{
		agg:            agg,
		interests:      interests,
		corrections:    corrections,
		feedbackPath:   feedbackPath,
		MinClusterSize: 2,
	}
}

// urlRecurrence is the per-URL data themes cluster over.
type urlRecurrence struct {
	url        string
	sessions   map[string]bool
	days       map[string]bool
	categories map[string]bool
	keywords   map[string]bool
	firstSeen  string
	lastSeen   string
}

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "how": true, "in": true,
	"is": true, "it": true, "of": true, "on": true, "or": true, "the": true,
	"to": true, "with": true, "your": true, "you": true, "what": true,
	"why": true, "when": true, "this": true, "that": true, "not": true,
	"new": true, "best": true, "top": true, "home": true, "page": true,
}

// titleKeywords tokenizes a title into lowercase keywords, dropping stop
// words and short tokens.
func titleKeywords(title string) []string {
	fields := strings.FieldsFunc(strings.ToLower(title), func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'))
	})
	keywords := make([]string, 0, len(fields))
	for _, field := range fields {
		if len(field) < 3 || stopWords[field] {
			continue
		}
		keywords = append(keywords, field)
	}
	return keywords
}

func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "\x00" + b
}

// Proposals builds the current theme proposals from all sessions, enriched
// with research interests and corrections, with dismissed and archived
// themes filtered from the active view.
func (d *ThemeDetector) Proposals() ([]models.Theme, error) {
	index, err := d.agg.Load()
	if err != nil {
		return nil, err
	}

	recurrence, cooccurrence := d.buildRecurrence(index)
	themes := d.cluster(recurrence, cooccurrence)
	d.enrich(themes)

	feedback := d.loadFeedback()
	active := themes[:0]
	for _, theme := range themes {
		if fb, ok := feedback[theme.ID]; ok {
			theme.Status = fb.Status
			theme.RenamedTo = fb.RenamedTo
		}
		if theme.Status == models.ThemeDismissed || theme.Status == models.ThemeArchived {
			continue
		}
		active = append(active, theme)
	}
	return active, nil
}

func (d *ThemeDetector) buildRecurrence(index *Index) (map[string]*urlRecurrence, map[string]int) {
	recurrence := map[string]*urlRecurrence{}
	urlsBySession := map[string][]string{}

	for _, occ := range index.Occurrences {
		if occ.URL == "" {
			continue
		}
		rec, ok := recurrence[occ.URL]
		if !ok {
			rec = &urlRecurrence{
				url:        occ.URL,
				sessions:   map[string]bool{},
				days:       map[string]bool{},
				categories: map[string]bool{},
				keywords:   map[string]bool{},
			}
			recurrence[occ.URL] = rec
		}
		if !rec.sessions[occ.SessionID] {
			rec.sessions[occ.SessionID] = true
			urlsBySession[occ.SessionID] = append(urlsBySession[occ.SessionID], occ.URL)
		}
		if t, ok := parseTimestamp(occ.SessionTimestamp); ok {
			rec.days[t.Format("2006-01-02")] = true
		}
		rec.categories[occ.Category] = true
		for _, keyword := range titleKeywords(occ.Title) {
			rec.keywords[keyword] = true
		}
		if rec.firstSeen == "" || occ.SessionTimestamp < rec.firstSeen {
			rec.firstSeen = occ.SessionTimestamp
		}
		if occ.SessionTimestamp > rec.lastSeen {
			rec.lastSeen = occ.SessionTimestamp
		}
	}

	cooccurrence := map[string]int{}
	for _, urls := range urlsBySession {
		sort.Strings(urls)
		for i := 0; i < len(urls); i++ {
			for j := i + 1; j < len(urls); j++ {
				if urls[i] != urls[j] {
					cooccurrence[pairKey(urls[i], urls[j])]++
				}
			}
		}
	}
	return recurrence, cooccurrence
}

// cluster runs the greedy keyword-seeded clustering.
func (d *ThemeDetector) cluster(recurrence map[string]*urlRecurrence, cooccurrence map[string]int) []models.Theme {
	minSize := d.MinClusterSize
	if minSize <= 0 {
		minSize = 2
	}

	byKeyword := map[string][]string{}
	for url, rec := range recurrence {
		for keyword := range rec.keywords {
			byKeyword[keyword] = append(byKeyword[keyword], url)
		}
	}

	type scoredKeyword struct {
		keyword     string
		specificity float64
	}
	candidates := []scoredKeyword{}
	for keyword, urls := range byKeyword {
		if len(urls) < minSize || len(urls) > 20 {
			continue
		}
		candidates = append(candidates, scoredKeyword{
			keyword:     keyword,
			specificity: 1 / math.Log2(float64(len(urls))+1),
		})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].specificity != candidates[j].specificity {
			return candidates[i].specificity > candidates[j].specificity
		}
		return candidates[i].keyword < candidates[j].keyword
	})

	assigned := map[string]bool{}
	themes := []models.Theme{}

	for _, candidate := range candidates {
		group := []string{}
		for _, url := range byKeyword[candidate.keyword] {
			if !assigned[url] {
				group = append(group, url)
			}
		}
		if len(group) < minSize {
			continue
		}

		if len(group) > 3 && coOccurrenceRatio(group, cooccurrence) < 0.1 {
			continue
		}

		// Expand: add unassigned URLs that co-occur at least twice with a
		// cluster member and share at least one keyword.
		inGroup := map[string]bool{}
		for _, url := range group {
			inGroup[url] = true
		}
		for url, rec := range recurrence {
			if assigned[url] || inGroup[url] {
				continue
			}
			coOccurs := false
			for member := range inGroup {
				if cooccurrence[pairKey(url, member)] >= 2 {
					coOccurs = true
					break
				}
			}
			if !coOccurs {
				continue
			}
			shares := false
			for member := range inGroup {
				if sharesKeyword(rec, recurrence[member]) {
					shares = true
					break
				}
			}
			if shares {
				group = append(group, url)
				inGroup[url] = true
			}
		}

		for _, url := range group {
			assigned[url] = true
		}
		themes = append(themes, d.buildTheme(group, recurrence, cooccurrence))
	}

	sort.Slice(themes, func(i, j int) bool {
		if themes[i].Score != themes[j].Score {
			return themes[i].Score > themes[j].Score
		}
		return themes[i].ID < themes[j].ID
	})
	return themes
}

func coOccurrenceRatio(group []string, cooccurrence map[string]int) float64 {
	pairs := 0
	hits := 0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			pairs++
			if cooccurrence[pairKey(group[i], group[j])] > 0 {
				hits++
			}
		}
	}
	if pairs == 0 {
		return 0
	}
	return float64(hits) / float64(pairs)
}

func sharesKeyword(a, b *urlRecurrence) bool {
	if a == nil || b == nil {
		return false
	}
	for keyword := range a.keywords {
		if b.keywords[keyword] {
			return true
		}
	}
	return false
}

func (d *ThemeDetector) buildTheme(group []string, recurrence map[string]*urlRecurrence, cooccurrence map[string]int) models.Theme {
	sort.Strings(group)

	keywordFreq := map[string]int{}
	categories := map[string]bool{}
	totalRecurrence := 0
	totalDays := 0
	firstSeen, lastSeen := "", ""
	for _, url := range group {
		rec := recurrence[url]
		totalRecurrence += len(rec.sessions)
		totalDays += len(rec.days)
		for keyword := range rec.keywords {
			keywordFreq[keyword]++
		}
		for category := range rec.categories {
			categories[category] = true
		}
		if firstSeen == "" || rec.firstSeen < firstSeen {
			firstSeen = rec.firstSeen
		}
		if rec.lastSeen > lastSeen {
			lastSeen = rec.lastSeen
		}
	}

	coScore := 0
	for i := 0; i < len(group); i++ {
		for j := i + 1; j < len(group); j++ {
			coScore += cooccurrence[pairKey(group[i], group[j])]
		}
	}

	label, labelKeywords := themeLabel(group, keywordFreq)
	score := 15*float64(len(group)) +
		5*float64(totalRecurrence) +
		8*float64(totalDays) +
		10*float64(len(categories)) +
		3*float64(coScore)

	return models.Theme{
		ID:         "theme-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(strings.Join(group, "\n"))).String(),
		Label:      label,
		URLs:       group,
		Keywords:   labelKeywords,
		Categories: sortedKeys(categories),
		Score:      score,
		Status:     models.ThemeActive,
		FirstSeen:  firstSeen,
		LastSeen:   lastSeen,
	}
}

// themeLabel picks the 2-3 most frequent keywords whose frequency clears
// max(2, 0.3·|cluster|); when none qualify the label falls back to the most
// common domain.
func themeLabel(group []string, keywordFreq map[string]int) (string, []string) {
	threshold := int(math.Max(2, 0.3*float64(len(group))))

	type freq struct {
		keyword string
		count   int
	}
	qualified := []freq{}
	for keyword, count := range keywordFreq {
		if count >= threshold {
			qualified = append(qualified, freq{keyword, count})
		}
	}
	sort.Slice(qualified, func(i, j int) bool {
		if qualified[i].count != qualified[j].count {
			return qualified[i].count > qualified[j].count
		}
		return qualified[i].keyword < qualified[j].keyword
	})

	if len(qualified) > 0 {
		n := len(qualified)
		if n > 3 {
			n = 3
		}
		keywords := make([]string, 0, n)
		parts := make([]string, 0, n)
		for _, q := range qualified[:n] {
			keywords = append(keywords, q.keyword)
			parts = append(parts, capitalize(q.keyword))
		}
		return strings.Join(parts, " / "), keywords
	}

	domainCounts := map[string]int{}
	for _, url := range group {
		if host := domainOf(url); host != "" {
			domainCounts[host]++
		}
	}
	topDomain := ""
	topCount := 0
	for domain, count := range domainCounts {
		if count > topCount || (count == topCount && domain < topDomain) {
			topDomain = domain
			topCount = count
		}
	}
	if topDomain == "" {
		topDomain = "untitled"
	}
	return topDomain + " cluster", nil
}

// enrich correlates themes with research interests by keyword substring and
// merges user corrections whose URL belongs to the cluster.
func (d *ThemeDetector) enrich(themes []models.Theme) {
	var interests []Interest
	if d.interests != nil {
		interests = d.interests.Load()
	}
	var corrections []models.Correction
	if d.corrections != nil {
		if c, err := d.corrections.Corrections(); err == nil {
			corrections = c
		}
	}

	for i := range themes {
		urls := map[string]bool{}
		for _, url := range themes[i].URLs {
			urls[url] = true
		}
		for _, correction := range corrections {
			if urls[correction.URL] {
				themes[i].Corrections = append(themes[i].Corrections, correction)
			}
		}
		for _, interest := range interests {
			if interestMatches(interest, themes[i].Keywords) {
				themes[i].RelatedInterests = append(themes[i].RelatedInterests, interest.Name)
			}
		}
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func interestMatches(interest Interest, keywords []string) bool {
	for _, themeKeyword := range keywords {
		for _, interestKeyword := range interest.Keywords {
			a := strings.ToLower(themeKeyword)
			b := strings.ToLower(interestKeyword)
			if strings.Contains(a, b) || strings.Contains(b, a) {
				return true
			}
		}
	}
	return false
}

// Feedback applies a user feedback action to a theme.
func (d *ThemeDetector) Feedback(themeID, action, renamedTo string) error {
	var status string
	switch action {
	case FeedbackConfirm, FeedbackCorrect:
		status = models.ThemeConfirmed
	case FeedbackDismiss:
		status = models.ThemeDismissed
	case FeedbackSave:
		status = models.ThemeSaved
	case FeedbackArchive:
		status = models.ThemeArchived
	case FeedbackKeepWatching:
		status = models.ThemeActive
	case FeedbackRename:
		status = models.ThemeActive
	default:
		return fmt.Errorf("unknown theme feedback action %q", action)
	}

	d.feedbackMu.Lock()
	defer d.feedbackMu.Unlock()

	feedback := d.loadFeedbackLocked()
	entry := themeFeedback{
		Status: status,
		At:     time.Now().UTC().Format(time.RFC3339),
	}
	if action == FeedbackRename {
		entry.RenamedTo = renamedTo
	} else if existing, ok := feedback[themeID]; ok {
		entry.RenamedTo = existing.RenamedTo
	}
	feedback[themeID] = entry
	return store.WriteJSONFile(d.feedbackPath, feedback)
}

func (d *ThemeDetector) loadFeedback() map[string]themeFeedback {
	d.feedbackMu.Lock()
	defer d.feedbackMu.Unlock()
	return d.loadFeedbackLocked()
}

func (d *ThemeDetector) loadFeedbackLocked() map[string]themeFeedback {
	feedback := map[string]themeFeedback{}
	if err := store.ReadJSONFile(d.feedbackPath, &feedback); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to read theme feedback", "error", err)
	}
	return feedback
}
