package api

import "github.com/adambalm/memento/pkg/models"

// HealthResponse reports service health.
type HealthResponse struct {
	Status   string             `json:"status"`
	Version  string             `json:"version"`
	Sessions int                `json:"sessions"`
	Lock     *models.LockStatus `json:"lock,omitempty"`
}

// MessageResponse is the generic success/message envelope used by lock and
// action endpoints.
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// PreferencesResponse lists stored rules and fresh suggestions.
type PreferencesResponse struct {
	Rules       []models.PreferenceRule `json:"rules"`
	Rejected    []string                `json:"rejected"`
	Suggestions []models.RuleSuggestion `json:"suggestions"`
}

// TaskActionResponse reports the outcome of a task action.
type TaskActionResponse struct {
	Success bool   `json:"success"`
	Outcome string `json:"outcome"`
}

// ReclassifyResponse reports a pass-4-only rerun.
type ReclassifyResponse struct {
	ID               string                   `json:"id"`
	ThematicAnalysis *models.ThematicAnalysis `json:"thematicAnalysis"`
}
