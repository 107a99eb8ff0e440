// Package limiter tracks login attempts per (principal, origin) pair and
// enforces temporary lockout with exponential backoff.
package limiter

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/server/models"
)

// Store persists the attempt audit trail and lockout state, keyed by
// (principal, origin). The Tracker serializes conflicting calls for the
// same key, so implementations only need per-call atomicity.
type Store interface {
	// Load returns the lockout state for the key, or a zero state when the
	// key has never been seen.
	Load(ctx context.Context, principalID, origin string) (*models.LockoutState, error)

	// Save replaces the lockout state for the key.
	Save(ctx context.Context, principalID, origin string, state *models.LockoutState) error

	// Append records a login attempt in the audit trail.
	Append(ctx context.Context, attempt *models.LoginAttempt) error
}

// maxAttemptsPerKey bounds the in-memory audit trail per key.
const maxAttemptsPerKey = 256

// MemoryStore keeps lockout state and a bounded attempt trail in process
// memory. Suitable for single-instance deployments and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	states   map[string]*models.LockoutState
	attempts map[string][]*models.LoginAttempt
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states:   make(map[string]*models.LockoutState),
		attempts: make(map[string][]*models.LoginAttempt),
	}
}

func storeKey(principalID, origin string) string {
	return principalID + "\x1f" + origin
}

func (s *MemoryStore) Load(ctx context.Context, principalID, origin string) (*models.LockoutState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.states[storeKey(principalID, origin)]
	if !ok {
		return &models.LockoutState{}, nil
	}
	return cloneState(st), nil
}

func (s *MemoryStore) Save(ctx context.Context, principalID, origin string, state *models.LockoutState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[storeKey(principalID, origin)] = cloneState(state)
	return nil
}

func (s *MemoryStore) Append(ctx context.Context, attempt *models.LoginAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := storeKey(attempt.PrincipalID, attempt.Origin)
	trail := append(s.attempts[k], attempt)
	if len(trail) > maxAttemptsPerKey {
		trail = trail[len(trail)-maxAttemptsPerKey:]
	}
	s.attempts[k] = trail
	return nil
}

// Attempts returns a copy of the recorded trail for the key, newest last.
func (s *MemoryStore) Attempts(principalID, origin string) []*models.LoginAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	trail := s.attempts[storeKey(principalID, origin)]
	out := make([]*models.LoginAttempt, len(trail))
	copy(out, trail)
	return out
}

func cloneState(st *models.LockoutState) *models.LockoutState {
	cp := *st
	cp.Failures = make([]time.Time, len(st.Failures))
	copy(cp.Failures, st.Failures)
	return &cp
}
