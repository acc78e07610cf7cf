package services

import "fmt"

// ClearLaunchpadLock releases the lock for a session after verifying the
// forced-completion gate: without override, every item in the session must
// be resolved.
func ClearLaunchpadLock(dispositions *DispositionService, lock *LockService, sessionID string, override bool) error {
	if !override {
		view, err := dispositions.View(sessionID)
		if err != nil {
			return err
		}
		if !view.AllResolved {
			return fmt.Errorf("%w: %d items unresolved", ErrPreconditionFailed, view.UnresolvedCount)
		}
	}
	return lock.Clear(sessionID, override)
}
