package models

import "time"

// SessionView is a read-only copy of the session state. The credential
// itself is never exposed, only whether one is held.
type SessionView struct {
	Authenticated     bool
	HasCredential     bool
	Generation        uint64
	LastActivity      time.Time
	AutoLogoutMinutes int
	FailedAttempts    int
	MaxAttempts       int
	LockoutUntil      *time.Time
}

// LockedOut reports whether login attempts are blocked at now.
func (v SessionView) LockedOut(now time.Time) bool {
	return v.LockoutUntil != nil && now.Before(*v.LockoutUntil)
}
