package limiter

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/clockx"
	"github.com/dmitrijs2005/sessioncore/internal/server/models"
)

// Policy holds the lockout thresholds. All values are configuration
// inputs; see DefaultPolicy for the design defaults.
type Policy struct {
	// MaxFailures is the number of consecutive failures within
	// AttemptWindow that triggers a lockout.
	MaxFailures int
	// AttemptWindow is the sliding window failures are counted in.
	AttemptWindow time.Duration
	// LockoutBase is the first lockout duration; each further lockout
	// within EscalationWindow doubles it up to LockoutMax.
	LockoutBase time.Duration
	LockoutMax  time.Duration
	// EscalationWindow is how long lockout history keeps escalating the
	// backoff. A successful login does not reset it.
	EscalationWindow time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		MaxFailures:      5,
		AttemptWindow:    15 * time.Minute,
		LockoutBase:      30 * time.Second,
		LockoutMax:       15 * time.Minute,
		EscalationWindow: 24 * time.Hour,
	}
}

const shardCount = 64

// Tracker enforces the lockout policy. Calls for the same (principal,
// origin) key are serialized through a sharded mutex, so two simultaneous
// failures cannot both slip under the threshold; unrelated keys proceed in
// parallel.
type Tracker struct {
	store  Store
	policy Policy
	clock  clockx.Clock
	shards [shardCount]sync.Mutex
}

func NewTracker(store Store, policy Policy, clock clockx.Clock) *Tracker {
	return &Tracker{store: store, policy: policy, clock: clock}
}

func (t *Tracker) shard(principalID, origin string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(principalID))
	h.Write([]byte{0})
	h.Write([]byte(origin))
	return &t.shards[h.Sum32()%shardCount]
}

// IsLocked reports whether the key is currently locked and, if so, the
// remaining time until unlock.
func (t *Tracker) IsLocked(ctx context.Context, principalID, origin string) (bool, time.Duration, error) {
	mu := t.shard(principalID, origin)
	mu.Lock()
	defer mu.Unlock()

	st, err := t.store.Load(ctx, principalID, origin)
	if err != nil {
		return false, 0, err
	}

	now := t.clock.Now()
	if st.LockedUntil.After(now) {
		return true, st.LockedUntil.Sub(now), nil
	}
	return false, 0, nil
}

// RecordAttempt appends the attempt to the audit trail, prunes history
// outside the sliding window, and recomputes the lockout state.
func (t *Tracker) RecordAttempt(ctx context.Context, principalID, origin string, success bool) error {
	mu := t.shard(principalID, origin)
	mu.Lock()
	defer mu.Unlock()

	now := t.clock.Now()
	if err := t.store.Append(ctx, &models.LoginAttempt{
		PrincipalID: principalID,
		Origin:      origin,
		At:          now,
		Success:     success,
	}); err != nil {
		return err
	}

	st, err := t.store.Load(ctx, principalID, origin)
	if err != nil {
		return err
	}

	// Expired lockouts and stale escalation history fall away first.
	if !st.LockedUntil.IsZero() && !st.LockedUntil.After(now) {
		st.LockedUntil = time.Time{}
		st.Failures = nil
	}
	if st.Lockouts > 0 && now.Sub(st.LastLockout) > t.policy.EscalationWindow {
		st.Lockouts = 0
	}

	if success {
		st.Failures = nil
	} else {
		st.Failures = pruneBefore(append(st.Failures, now), now.Add(-t.policy.AttemptWindow))
		if len(st.Failures) >= t.policy.MaxFailures {
			st.Lockouts++
			st.LastLockout = now
			st.LockedUntil = now.Add(t.backoff(st.Lockouts))
			st.Failures = nil
		}
	}

	return t.store.Save(ctx, principalID, origin, st)
}

// backoff doubles the base duration per lockout within the escalation
// window, capped at the policy maximum.
func (t *Tracker) backoff(lockouts int) time.Duration {
	d := t.policy.LockoutBase
	for i := 1; i < lockouts; i++ {
		d *= 2
		if d >= t.policy.LockoutMax {
			return t.policy.LockoutMax
		}
	}
	if d > t.policy.LockoutMax {
		d = t.policy.LockoutMax
	}
	return d
}

func pruneBefore(times []time.Time, cutoff time.Time) []time.Time {
	kept := times[:0]
	for _, ts := range times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	return kept
}
