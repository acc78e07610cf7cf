package classifier

import (
	"net/url"
	"strings"

	"github.com/adambalm/memento/pkg/models"
)

// PreferenceSource is the slice of the preference store the classifier
// needs: the approved rules to inject, and the application counter to bump
// for rules that matched tabs.
type PreferenceSource interface {
	ApprovedRules() ([]models.PreferenceRule, error)
	IncrementApplications(ids []string) error
}

// Hostname extracts the lowercase host from a URL, tolerating bare hosts
// without a scheme.
func Hostname(raw string) string {
	parsed, err := url.Parse(raw)
	if err == nil && parsed.Hostname() != "" {
		return strings.ToLower(parsed.Hostname())
	}
	// Bare "example.com/path" parses with an empty host; retry with a scheme.
	parsed, err = url.Parse("https://" + raw)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// domainMatches reports whether host equals domain or is a subdomain of it.
func domainMatches(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// matchPreferences computes which tabs each rule applies to. Rules with a
// domain but no matching tabs are still injected into the prompt for general
// guidance; they just carry no matched indices.
func matchPreferences(rules []models.PreferenceRule, tabs []models.Tab) []models.AppliedPreference {
	applied := make([]models.AppliedPreference, 0, len(rules))
	for _, rule := range rules {
		entry := models.AppliedPreference{
			RuleID: rule.ID,
			Domain: rule.Domain,
			Rule:   rule.Rule,
		}
		if rule.Domain != "" {
			for i, tab := range tabs {
				if host := Hostname(tab.URL); host != "" && domainMatches(host, rule.Domain) {
					entry.MatchedTabs = append(entry.MatchedTabs, i+1)
				}
			}
		}
		applied = append(applied, entry)
	}
	return applied
}
