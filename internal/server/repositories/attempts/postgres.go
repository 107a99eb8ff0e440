// Package attempts provides the PostgreSQL-backed attempt and lockout
// store consumed by the rate limiter.
package attempts

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/dbx"
	"github.com/dmitrijs2005/sessioncore/internal/server/models"
)

// PostgresStore implements limiter.Store over dbx.DBTX. The limiter
// serializes conflicting calls per (principal, origin) key, so plain
// upserts are sufficient here.
type PostgresStore struct {
	db dbx.DBTX
}

func NewPostgresStore(db dbx.DBTX) *PostgresStore {
	return &PostgresStore{db: db}
}

// Load returns the lockout state for the key, or a zero state when the key
// has never been seen.
func (s *PostgresStore) Load(ctx context.Context, principalID, origin string) (*models.LockoutState, error) {
	query := `
		SELECT failure_times, lockouts, last_lockout_at, locked_until
		FROM lockout_states
		WHERE principal_id = $1 AND origin = $2
	`
	var (
		failuresRaw []byte
		lastLockout sql.NullTime
		lockedUntil sql.NullTime
	)
	st := &models.LockoutState{}
	err := s.db.QueryRowContext(ctx, query, principalID, origin).
		Scan(&failuresRaw, &st.Lockouts, &lastLockout, &lockedUntil)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.LockoutState{}, nil
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if len(failuresRaw) > 0 {
		if err := json.Unmarshal(failuresRaw, &st.Failures); err != nil {
			return nil, fmt.Errorf("corrupt failure_times: %w", err)
		}
	}
	if lastLockout.Valid {
		st.LastLockout = lastLockout.Time
	}
	if lockedUntil.Valid {
		st.LockedUntil = lockedUntil.Time
	}
	return st, nil
}

// Save upserts the lockout state for the key.
func (s *PostgresStore) Save(ctx context.Context, principalID, origin string, state *models.LockoutState) error {
	failuresRaw, err := json.Marshal(state.Failures)
	if err != nil {
		return fmt.Errorf("encoding failure_times: %w", err)
	}

	query := `
		INSERT INTO lockout_states (principal_id, origin, failure_times, lockouts, last_lockout_at, locked_until)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (principal_id, origin) DO UPDATE
		SET failure_times = EXCLUDED.failure_times,
		    lockouts = EXCLUDED.lockouts,
		    last_lockout_at = EXCLUDED.last_lockout_at,
		    locked_until = EXCLUDED.locked_until
	`
	if _, err := s.db.ExecContext(ctx, query, principalID, origin, failuresRaw,
		state.Lockouts, nullTime(state.LastLockout), nullTime(state.LockedUntil)); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Append records a login attempt in the audit trail.
func (s *PostgresStore) Append(ctx context.Context, attempt *models.LoginAttempt) error {
	query := `
		INSERT INTO login_attempts (principal_id, origin, attempted_at, success)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := s.db.ExecContext(ctx, query,
		attempt.PrincipalID, attempt.Origin, attempt.At, attempt.Success); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// PruneAttempts drops audit-trail rows older than the cutoff.
func (s *PostgresStore) PruneAttempts(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM login_attempts WHERE attempted_at < $1`
	res, err := s.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return res.RowsAffected()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
