// Package learning mines disposition logs for user corrections and turns
// recurring regroup patterns into candidate preference rules.
package learning

import (
	"log/slog"
	"net/url"
	"sort"
	"strings"

	"github.com/adambalm/memento/pkg/models"
	"github.com/adambalm/memento/pkg/store"
)

// Analyzer reads disposition logs across all sessions and derives
// correction statistics and rule suggestions.
type Analyzer struct {
	sessions    *store.SessionStore
	preferences *store.PreferenceStore
}

// NewAnalyzer creates a correction analyzer.
func NewAnalyzer(sessions *store.SessionStore, preferences *store.PreferenceStore) *Analyzer {
	return &Analyzer{sessions: sessions, preferences: preferences}
}

// Corrections walks every session and emits one correction record per
// regroup disposition that can be resolved back to its tab.
func (a *Analyzer) Corrections() ([]models.Correction, error) {
	summaries, err := a.sessions.List()
	if err != nil {
		return nil, err
	}

	corrections := []models.Correction{}
	for _, summary := range summaries {
		artifact, err := a.sessions.Read(summary.ID)
		if err != nil || artifact == nil {
			slog.Warn("Skipping unreadable session during correction scan", "id", summary.ID, "error", err)
			continue
		}
		for _, d := range artifact.Dispositions {
			if d.Action != models.ActionRegroup {
				continue
			}
			correction := models.Correction{
				SessionID: summary.ID,
				Timestamp: artifact.Timestamp,
				From:      d.From,
				To:        d.To,
				At:        d.At,
				ItemID:    d.ItemID,
			}
			if item, _, ok := artifact.FindItem(d.ItemID); ok {
				correction.URL = item.URL
				correction.Title = item.Title
				correction.Domain = hostOf(item.URL)
			} else {
				correction.Domain = hostOf(d.ItemID)
			}
			corrections = append(corrections, correction)
		}
	}
	return corrections, nil
}

// AggregateByDomain groups corrections by URL host, tracking from/to
// category distributions.
func (a *Analyzer) AggregateByDomain() (map[string]*models.DomainAggregate, error) {
	corrections, err := a.Corrections()
	if err != nil {
		return nil, err
	}
	return aggregateByDomain(corrections), nil
}

func aggregateByDomain(corrections []models.Correction) map[string]*models.DomainAggregate {
	byDomain := make(map[string]*models.DomainAggregate)
	for _, c := range corrections {
		if c.Domain == "" {
			continue
		}
		agg, ok := byDomain[c.Domain]
		if !ok {
			agg = &models.DomainAggregate{
				Domain:         c.Domain,
				FromCategories: map[string]int{},
				ToCategories:   map[string]int{},
			}
			byDomain[c.Domain] = agg
		}
		agg.TotalCorrections++
		agg.FromCategories[c.From]++
		agg.ToCategories[c.To]++
		agg.Corrections = append(agg.Corrections, c)
	}
	return byDomain
}

// CorrectionRates computes, for each domain with at least two observed tabs
// across all sessions, correctionCount / totalTabs, sorted descending.
func (a *Analyzer) CorrectionRates() ([]models.CorrectionRate, error) {
	tabCounts, err := a.domainTabCounts()
	if err != nil {
		return nil, err
	}
	aggregates, err := a.AggregateByDomain()
	if err != nil {
		return nil, err
	}

	rates := []models.CorrectionRate{}
	for domain, total := range tabCounts {
		if total < 2 {
			continue
		}
		count := 0
		if agg, ok := aggregates[domain]; ok {
			count = agg.TotalCorrections
		}
		rates = append(rates, models.CorrectionRate{
			Domain:          domain,
			TotalTabs:       total,
			CorrectionCount: count,
			Rate:            float64(count) / float64(total),
		})
	}
	sort.Slice(rates, func(i, j int) bool {
		if rates[i].Rate != rates[j].Rate {
			return rates[i].Rate > rates[j].Rate
		}
		return rates[i].Domain < rates[j].Domain
	})
	return rates, nil
}

func (a *Analyzer) domainTabCounts() (map[string]int, error) {
	summaries, err := a.sessions.List()
	if err != nil {
		return nil, err
	}
	counts := map[string]int{}
	for _, summary := range summaries {
		artifact, err := a.sessions.Read(summary.ID)
		if err != nil || artifact == nil {
			continue
		}
		for _, items := range artifact.Groups {
			for _, item := range items {
				if host := hostOf(item.URL); host != "" {
					counts[host]++
				}
			}
		}
	}
	return counts, nil
}

// SuggestExtractors identifies domains whose correction rate suggests their
// pages need content-extraction hints (a selector config, not a rule).
func (a *Analyzer) SuggestExtractors(minCorrections int, minRate float64) ([]models.ExtractorSuggestion, error) {
	if minCorrections <= 0 {
		minCorrections = 2
	}
	if minRate <= 0 {
		minRate = 0.3
	}

	rates, err := a.CorrectionRates()
	if err != nil {
		return nil, err
	}
	suggestions := []models.ExtractorSuggestion{}
	for _, rate := range rates {
		if rate.CorrectionCount >= minCorrections && rate.Rate >= minRate {
			suggestions = append(suggestions, models.ExtractorSuggestion{
				Domain:          rate.Domain,
				CorrectionCount: rate.CorrectionCount,
				Rate:            rate.Rate,
				Reason:          "frequent misclassification suggests page content is not visible to the classifier",
			})
		}
	}
	return suggestions, nil
}

func hostOf(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
