package store

import (
	"os"
	"sync"
	"time"

	"github.com/adambalm/memento/pkg/models"
)

// PreferenceStore persists learned classification rules at
// <projectRoot>/prompts/learned-rules.json. Rules grow monotonically under
// user approval and rejection; rejected suggestion ids are remembered so the
// same suggestion is not resurfaced.
type PreferenceStore struct {
	path string
	mu   sync.Mutex
}

// NewPreferenceStore creates a store backed by the given file.
func NewPreferenceStore(path string) *PreferenceStore {
	return &PreferenceStore{path: path}
}

func (p *PreferenceStore) load() (*models.PreferenceFile, error) {
	var file models.PreferenceFile
	if err := ReadJSONFile(p.path, &file); err != nil {
		if os.IsNotExist(err) {
			return &models.PreferenceFile{
				Rules:    []models.PreferenceRule{},
				Rejected: []string{},
				Version:  1,
			}, nil
		}
		return nil, err
	}
	if file.Rules == nil {
		file.Rules = []models.PreferenceRule{}
	}
	if file.Rejected == nil {
		file.Rejected = []string{}
	}
	return &file, nil
}

func (p *PreferenceStore) save(file *models.PreferenceFile) error {
	file.LastUpdated = time.Now().UTC().Format(time.RFC3339)
	return WriteJSONFile(p.path, file)
}

// All returns the full preference file.
func (p *PreferenceStore) All() (*models.PreferenceFile, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.load()
}

// ApprovedRules returns rules with approved=true.
func (p *PreferenceStore) ApprovedRules() ([]models.PreferenceRule, error) {
	file, err := p.All()
	if err != nil {
		return nil, err
	}
	approved := []models.PreferenceRule{}
	for _, rule := range file.Rules {
		if rule.Approved {
			approved = append(approved, rule)
		}
	}
	return approved, nil
}

// KnownDomains returns domains already covered by a stored rule (approved or
// pending), so suggestion generation can skip them.
func (p *PreferenceStore) KnownDomains() (map[string]bool, error) {
	file, err := p.All()
	if err != nil {
		return nil, err
	}
	domains := make(map[string]bool, len(file.Rules))
	for _, rule := range file.Rules {
		if rule.Domain != "" {
			domains[rule.Domain] = true
		}
	}
	return domains, nil
}

// RejectedIDs returns the set of rejected suggestion ids.
func (p *PreferenceStore) RejectedIDs() (map[string]bool, error) {
	file, err := p.All()
	if err != nil {
		return nil, err
	}
	rejected := make(map[string]bool, len(file.Rejected))
	for _, id := range file.Rejected {
		rejected[id] = true
	}
	return rejected, nil
}

// Approve stores rule as approved, stamping approvedAt. An existing rule with
// the same id is replaced in place.
func (p *PreferenceStore) Approve(rule models.PreferenceRule) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := p.load()
	if err != nil {
		return err
	}
	rule.Approved = true
	rule.ApprovedAt = time.Now().UTC().Format(time.RFC3339)
	if rule.CreatedAt == "" {
		rule.CreatedAt = rule.ApprovedAt
	}

	replaced := false
	for i := range file.Rules {
		if file.Rules[i].ID == rule.ID {
			file.Rules[i] = rule
			replaced = true
			break
		}
	}
	if !replaced {
		file.Rules = append(file.Rules, rule)
	}
	return p.save(file)
}

// Unapprove flips an approved rule back to pending. Returns false when the
// rule does not exist.
func (p *PreferenceStore) Unapprove(id string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := p.load()
	if err != nil {
		return false, err
	}
	for i := range file.Rules {
		if file.Rules[i].ID == id {
			file.Rules[i].Approved = false
			file.Rules[i].ApprovedAt = ""
			return true, p.save(file)
		}
	}
	return false, nil
}

// Reject records the suggestion id as rejected.
func (p *PreferenceStore) Reject(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := p.load()
	if err != nil {
		return err
	}
	for _, existing := range file.Rejected {
		if existing == id {
			return nil
		}
	}
	file.Rejected = append(file.Rejected, id)
	return p.save(file)
}

// IncrementApplications bumps applicationCount and lastAppliedAt for the
// given rule ids.
func (p *PreferenceStore) IncrementApplications(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	file, err := p.load()
	if err != nil {
		return err
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	now := time.Now().UTC().Format(time.RFC3339)
	for i := range file.Rules {
		if wanted[file.Rules[i].ID] {
			file.Rules[i].ApplicationCount++
			file.Rules[i].LastAppliedAt = now
		}
	}
	return p.save(file)
}
