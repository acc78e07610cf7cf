package models

// Lock is the single-slot Launchpad lock record. At most one exists per host
// at a time; its presence is what blocks new Launchpad captures.
type Lock struct {
	SessionID      string         `json:"sessionId"`
	LockedAt       string         `json:"lockedAt"`
	ItemsRemaining int            `json:"itemsRemaining"`
	ResumeState    map[string]any `json:"resumeState,omitempty"`
}

// LockStatus is the read-side projection of the lock file. A missing file —
// and any read error, by fail-open policy — reports unlocked.
type LockStatus struct {
	Locked         bool           `json:"locked"`
	SessionID      string         `json:"sessionId,omitempty"`
	LockedAt       string         `json:"lockedAt,omitempty"`
	ItemsRemaining int            `json:"itemsRemaining"`
	ResumeState    map[string]any `json:"resumeState,omitempty"`
}
