package store

import (
	"os"
	"sync"
	"time"

	"github.com/adambalm/memento/pkg/models"
)

// DomainRuleStore persists coarse per-hostname classification signals at
// <memoryDir>/domain-rules.json. A small well-known seed set is written once
// on first access.
type DomainRuleStore struct {
	path string
	mu   sync.Mutex
}

// NewDomainRuleStore creates a store backed by the given file.
func NewDomainRuleStore(path string) *DomainRuleStore {
	return &DomainRuleStore{path: path}
}

// bootstrapRules seed obvious hosts so the first sessions get signal before
// any user feedback exists.
var bootstrapRules = map[string]models.DomainRule{
	"news.ycombinator.com": {Signal: models.SignalContextual, Reason: "mixed signal aggregator"},
	"mail.google.com":      {Signal: models.SignalNoise, Reason: "ambient inbox tab"},
	"calendar.google.com":  {Signal: models.SignalNoise, Reason: "ambient calendar tab"},
	"scholar.google.com":   {Signal: models.SignalAlwaysInteresting, Reason: "deliberate research"},
	"arxiv.org":            {Signal: models.SignalAlwaysInteresting, Reason: "deliberate research"},
	"github.com":           {Signal: models.SignalContextual, Reason: "work or browsing depending on repo"},
}

func (d *DomainRuleStore) load() (*models.DomainRuleFile, error) {
	var file models.DomainRuleFile
	if err := ReadJSONFile(d.path, &file); err != nil {
		if os.IsNotExist(err) {
			return &models.DomainRuleFile{Rules: map[string]models.DomainRule{}}, nil
		}
		return nil, err
	}
	if file.Rules == nil {
		file.Rules = map[string]models.DomainRule{}
	}
	return &file, nil
}

// All returns the rule file, bootstrapping the seed set on first call.
func (d *DomainRuleStore) All() (*models.DomainRuleFile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.load()
	if err != nil {
		return nil, err
	}
	if !file.Bootstrapped {
		now := time.Now().UTC().Format(time.RFC3339)
		for host, rule := range bootstrapRules {
			if _, exists := file.Rules[host]; !exists {
				rule.Source = "bootstrapped"
				rule.At = now
				file.Rules[host] = rule
			}
		}
		file.Bootstrapped = true
		if err := WriteJSONFile(d.path, file); err != nil {
			return nil, err
		}
	}
	return file, nil
}

// Set records a user-sourced rule for a hostname.
func (d *DomainRuleStore) Set(host string, signal, reason string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.load()
	if err != nil {
		return err
	}
	file.Rules[host] = models.DomainRule{
		Signal: signal,
		Reason: reason,
		Source: "user",
		At:     time.Now().UTC().Format(time.RFC3339),
	}
	return WriteJSONFile(d.path, file)
}

// Delete removes the rule for a hostname. Returns false when absent.
func (d *DomainRuleStore) Delete(host string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	file, err := d.load()
	if err != nil {
		return false, err
	}
	if _, ok := file.Rules[host]; !ok {
		return false, nil
	}
	delete(file.Rules, host)
	return true, WriteJSONFile(d.path, file)
}
