package api

import "github.com/adambalm/memento/pkg/models"

// ClassifyRequest is the extension's tab-capture payload.
type ClassifyRequest struct {
	Tabs      []models.Tab            `json:"tabs"`
	Engine    string                  `json:"engine,omitempty"`
	Context   *models.ClassifyContext `json:"context,omitempty"`
	DebugMode bool                    `json:"debugMode,omitempty"`
	Mode      string                  `json:"mode,omitempty"`
}

// AcquireLockRequest asks for the Launchpad lock.
type AcquireLockRequest struct {
	SessionID      string `json:"sessionId"`
	ItemsRemaining int    `json:"itemsRemaining"`
}

// ClearLockRequest releases the Launchpad lock.
type ClearLockRequest struct {
	Override bool `json:"override,omitempty"`
}

// BatchDispositionRequest appends several dispositions atomically.
type BatchDispositionRequest struct {
	Dispositions []models.Disposition `json:"dispositions"`
}

// CreateEffortRequest creates a named item grouping.
type CreateEffortRequest struct {
	Name  string   `json:"name"`
	Items []string `json:"items"`
}

// ApproveRuleRequest optionally overrides the suggested rule text on
// approval.
type ApproveRuleRequest struct {
	Rule string `json:"rule,omitempty"`
}

// DomainRuleRequest sets a per-hostname signal.
type DomainRuleRequest struct {
	Host   string `json:"host"`
	Signal string `json:"signal"`
	Reason string `json:"reason,omitempty"`
}

// ThemeFeedbackRequest applies a user feedback action to a theme.
type ThemeFeedbackRequest struct {
	Action    string `json:"action"`
	RenamedTo string `json:"renamedTo,omitempty"`
}

// TaskActionRequest applies an action to a generated task. The task snapshot
// travels with the request because tasks are derived, not stored.
type TaskActionRequest struct {
	Task   models.Task `json:"task"`
	Action string      `json:"action"`
}

// ResumeStateRequest merges partial resume state into the lock.
type ResumeStateRequest struct {
	ResumeState map[string]any `json:"resumeState"`
}

// ItemsRemainingRequest updates lock progress.
type ItemsRemainingRequest struct {
	ItemsRemaining int `json:"itemsRemaining"`
}
