package learning

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/adambalm/memento/pkg/models"
)

// GenerateRuleSuggestions builds candidate preference rules from correction
// patterns. A domain qualifies when it is not already covered by a stored or
// rejected rule, has at least minCorrections regroups, and the most common
// target category accounts for at least 60% of them. Suggestions are sorted
// by confidence × count descending.
func (a *Analyzer) GenerateRuleSuggestions(minCorrections int) ([]models.RuleSuggestion, error) {
	if minCorrections <= 0 {
		minCorrections = 2
	}

	aggregates, err := a.AggregateByDomain()
	if err != nil {
		return nil, err
	}
	known, err := a.preferences.KnownDomains()
	if err != nil {
		return nil, err
	}
	rejected, err := a.preferences.RejectedIDs()
	if err != nil {
		return nil, err
	}

	suggestions := []models.RuleSuggestion{}
	for domain, agg := range aggregates {
		if known[domain] {
			continue
		}
		if agg.TotalCorrections < minCorrections {
			continue
		}

		target, targetCount := topCategory(agg.ToCategories)
		agreement := float64(targetCount) / float64(agg.TotalCorrections)
		if agreement < 0.6 {
			continue
		}

		suggestion := models.RuleSuggestion{
			ID:             suggestionID(domain),
			Domain:         domain,
			TargetCategory: target,
			AgreementRatio: agreement,
			Confidence:     agreement,
			Count:          agg.TotalCorrections,
			PathExceptions: pathExceptions(agg.Corrections, target),
			Samples:        sampleCorrections(agg.Corrections, 3),
		}
		if rejected[suggestion.ID] {
			continue
		}
		suggestion.Rule = ruleText(domain, target, agg, suggestion.PathExceptions)
		suggestions = append(suggestions, suggestion)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		si := suggestions[i].Confidence * float64(suggestions[i].Count)
		sj := suggestions[j].Confidence * float64(suggestions[j].Count)
		if si != sj {
			return si > sj
		}
		return suggestions[i].Domain < suggestions[j].Domain
	})
	return suggestions, nil
}

// suggestionID is deterministic per domain so a rejection sticks across
// regeneration runs.
func suggestionID(domain string) string {
	return "rule-" + uuid.NewSHA1(uuid.NameSpaceURL, []byte(domain)).String()
}

func topCategory(counts map[string]int) (string, int) {
	best := ""
	bestCount := 0
	for category, count := range counts {
		if count > bestCount || (count == bestCount && category < best) {
			best = category
			bestCount = count
		}
	}
	return best, bestCount
}

// ruleText builds the natural-language rule naming the target and negating
// the categories the classifier kept getting wrong, with path exceptions
// appended when present.
func ruleText(domain, target string, agg *models.DomainAggregate, exceptions map[string]string) string {
	misTargets := make([]string, 0, len(agg.FromCategories))
	for from := range agg.FromCategories {
		if from != target {
			misTargets = append(misTargets, from)
		}
	}
	sort.Strings(misTargets)

	text := fmt.Sprintf("Tabs from %s belong in %q", domain, target)
	if len(misTargets) > 0 {
		text += fmt.Sprintf(", not %s", strings.Join(quoteAll(misTargets), " or "))
	}
	text += "."

	if len(exceptions) > 0 {
		segments := make([]string, 0, len(exceptions))
		for segment := range exceptions {
			segments = append(segments, segment)
		}
		sort.Strings(segments)
		for _, segment := range segments {
			text += fmt.Sprintf(" Exception: paths containing /%s/ belong in %q.", segment, exceptions[segment])
		}
	}
	return text
}

// pathExceptions finds path segments seen at least twice whose corrections
// consistently point to a category other than the domain target.
func pathExceptions(corrections []models.Correction, target string) map[string]string {
	type vote struct {
		counts map[string]int
		total  int
	}
	bySegment := map[string]*vote{}

	for _, c := range corrections {
		parsed, err := url.Parse(c.URL)
		if err != nil {
			continue
		}
		for _, segment := range strings.Split(parsed.Path, "/") {
			if segment == "" {
				continue
			}
			v, ok := bySegment[segment]
			if !ok {
				v = &vote{counts: map[string]int{}}
				bySegment[segment] = v
			}
			v.counts[c.To]++
			v.total++
		}
	}

	exceptions := map[string]string{}
	for segment, v := range bySegment {
		if v.total < 2 {
			continue
		}
		category, count := topCategory(v.counts)
		if category != target && count == v.total {
			exceptions[segment] = category
		}
	}
	if len(exceptions) == 0 {
		return nil
	}
	return exceptions
}

func sampleCorrections(corrections []models.Correction, n int) []models.Correction {
	if len(corrections) <= n {
		return corrections
	}
	return corrections[:n]
}

func quoteAll(values []string) []string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return quoted
}

// ApproveSuggestion persists a suggestion as an approved preference rule.
func (a *Analyzer) ApproveSuggestion(s models.RuleSuggestion) error {
	rule := models.PreferenceRule{
		ID:                s.ID,
		Domain:            s.Domain,
		Rule:              s.Rule,
		Confidence:        s.Confidence,
		Stats:             map[string]int{"corrections": s.Count},
		SourceCorrections: s.Samples,
		PathExceptions:    s.PathExceptions,
	}
	return a.preferences.Approve(rule)
}

// RejectSuggestion records the suggestion id so it is not resurfaced.
func (a *Analyzer) RejectSuggestion(id string) error {
	return a.preferences.Reject(id)
}
