// Package revocations provides the PostgreSQL-backed revocation ledger
// for refresh-token identifiers.
package revocations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/dbx"
)

// PostgresLedger implements ledger.Ledger. It holds *sql.DB rather than
// dbx.DBTX because Revoke runs a short transaction.
type PostgresLedger struct {
	db *sql.DB
}

func NewPostgresLedger(db *sql.DB) *PostgresLedger {
	return &PostgresLedger{db: db}
}

// Record registers a newly minted refresh-token identifier.
func (l *PostgresLedger) Record(ctx context.Context, tokenID string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (token_id, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (token_id) DO NOTHING
	`
	if _, err := l.db.ExecContext(ctx, query, tokenID, expiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Revoke marks the identifier revoked. The update-where-not-revoked form
// makes the first caller the single winner under concurrency; an unknown
// identifier gets a tombstone row so later checks still see it revoked.
func (l *PostgresLedger) Revoke(ctx context.Context, tokenID string, at time.Time) (bool, error) {
	revoked := false
	err := dbx.WithTx(ctx, l.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE refresh_tokens SET revoked_at = $2
			WHERE token_id = $1 AND revoked_at IS NULL
		`, tokenID, at)
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		if n > 0 {
			revoked = true
			return nil
		}

		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM refresh_tokens WHERE token_id = $1`, tokenID).Scan(&exists)
		if err == nil {
			// Row present but already revoked.
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("db error: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			INSERT INTO refresh_tokens (token_id, expires_at, revoked_at)
			VALUES ($1, $2, $2)
		`, tokenID, at); err != nil {
			return fmt.Errorf("db error: %w", err)
		}
		revoked = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return revoked, nil
}

// IsRevoked reports whether the identifier has been revoked.
func (l *PostgresLedger) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	err := l.db.QueryRowContext(ctx,
		`SELECT revoked_at IS NOT NULL FROM refresh_tokens WHERE token_id = $1`, tokenID).
		Scan(&revoked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("db error: %w", err)
	}
	return revoked, nil
}

// Prune drops entries whose token expired before the cutoff.
func (l *PostgresLedger) Prune(ctx context.Context, before time.Time) (int, error) {
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return int(n), nil
}
