package models

// Disposition actions. The log is append-only: entries are never edited or
// deleted, and undo is itself an appended action.
const (
	ActionTrash        = "trash"
	ActionComplete     = "complete"
	ActionRegroup      = "regroup"
	ActionReprioritize = "reprioritize"
	ActionPromote      = "promote"
	ActionDefer        = "defer"
	ActionLater        = "later"
	ActionUndo         = "undo"
)

// ValidActions is the allowed disposition action set.
var ValidActions = map[string]bool{
	ActionTrash:        true,
	ActionComplete:     true,
	ActionRegroup:      true,
	ActionReprioritize: true,
	ActionPromote:      true,
	ActionDefer:        true,
	ActionLater:        true,
	ActionUndo:         true,
}

// Disposition is one user action on a classified item.
type Disposition struct {
	Action   string `json:"action"`
	ItemID   string `json:"itemId"`
	At       string `json:"at"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Target   string `json:"target,omitempty"`
	Priority string `json:"priority,omitempty"`
	Undoes   string `json:"undoes,omitempty"`
	Batch    bool   `json:"batch,omitempty"`
}

// Item statuses derived by folding dispositions.
const (
	StatusPending   = "pending"
	StatusTrashed   = "trashed"
	StatusCompleted = "completed"
	StatusPromoted  = "promoted"
	StatusDeferred  = "deferred"
	StatusLater     = "later"
)

// ItemState is the derived per-item view. Never persisted — always recomputed
// from (original groups, disposition sequence) so the fold stays the single
// source of truth.
type ItemState struct {
	ItemID           string `json:"itemId"`
	Title            string `json:"title"`
	URL              string `json:"url,omitempty"`
	TabIndex         int    `json:"tabIndex"`
	Status           string `json:"status"`
	OriginalCategory string `json:"originalCategory"`
	CurrentCategory  string `json:"currentCategory"`
	RegroupedFrom    string `json:"regroupedFrom,omitempty"`
	Priority         string `json:"priority,omitempty"`
	TrashedAt        string `json:"trashedAt,omitempty"`
	CompletedAt      string `json:"completedAt,omitempty"`
	PromotedAt       string `json:"promotedAt,omitempty"`
	PromotedTo       string `json:"promotedTo,omitempty"`
	DeferredAt       string `json:"deferredAt,omitempty"`
	LaterAt          string `json:"laterAt,omitempty"`
	UndoneAt         string `json:"undoneAt,omitempty"`
	UndoneAction     string `json:"undoneAction,omitempty"`
}

// SessionView is a session artifact with derived item state attached.
type SessionView struct {
	*SessionArtifact
	ItemStates      map[string]*ItemState `json:"itemStates"`
	UnresolvedCount int                   `json:"unresolvedCount"`
	AllResolved     bool                  `json:"allResolved"`
}

// AppliedView is SessionView with groups reshaped to current categories and
// terminal items extracted.
type AppliedView struct {
	*SessionView
	TrashedItems   []*ItemState `json:"_trashedItems"`
	CompletedItems []*ItemState `json:"_completedItems"`
	LaterItems     []*ItemState `json:"_laterItems"`
}
