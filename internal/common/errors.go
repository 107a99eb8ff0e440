// Package common defines shared constants and sentinel errors used across
// the session core. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Authentication outcomes. These are expected conditions returned as
	// values, never faults. ErrInvalidCredentials covers both an unknown
	// principal and a wrong secret so callers cannot tell them apart.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrLockedOut          = errors.New("locked out")

	// Token verification outcomes.
	ErrTokenMalformed   = errors.New("token malformed")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrWrongTokenKind   = errors.New("wrong token kind")
	ErrRevoked          = errors.New("token revoked")

	// ErrStorageUnavailable marks collaborator faults. It is the only kind
	// the hosting layer should surface as a system fault rather than an
	// authentication failure.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// LockedOutError carries the remaining lockout duration. It matches
// ErrLockedOut under errors.Is.
type LockedOutError struct {
	RetryAfter time.Duration
}

func (e *LockedOutError) Error() string {
	return fmt.Sprintf("locked out, retry after %s", e.RetryAfter)
}

func (e *LockedOutError) Is(target error) bool { return target == ErrLockedOut }

// StorageError wraps a collaborator failure so it matches
// ErrStorageUnavailable while preserving the cause in the message.
func StorageError(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
