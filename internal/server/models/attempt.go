package models

import "time"

// LoginAttempt is the ephemeral record of a single login call.
type LoginAttempt struct {
	PrincipalID string
	Origin      string
	At          time.Time
	Success     bool
}

// LockoutState is derived per (principal, origin) pair.
//
// Failures holds the timestamps of consecutive failed attempts; it is
// cleared on any success and when a lockout triggers. Lockouts counts how
// many lockouts fired within the escalation window and drives the backoff
// curve; it survives successful logins so a success cannot reset the
// escalation. A zero LockedUntil means not locked.
type LockoutState struct {
	Failures    []time.Time
	Lockouts    int
	LastLockout time.Time
	LockedUntil time.Time
}
