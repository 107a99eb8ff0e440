package repomanager

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/sessioncore/internal/server/ledger"
	"github.com/dmitrijs2005/sessioncore/internal/server/limiter"
	"github.com/dmitrijs2005/sessioncore/internal/server/migrations"
	"github.com/dmitrijs2005/sessioncore/internal/server/repositories/attempts"
	"github.com/dmitrijs2005/sessioncore/internal/server/repositories/principals"
	"github.com/dmitrijs2005/sessioncore/internal/server/repositories/revocations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/sethvargo/go-retry"
)

type PostgresRepositoryManager struct {
	db *sql.DB
}

// NewPostgresRepositoryManager opens the pool, waits for the database to
// accept connections, and runs migrations. The ping is retried with
// exponential backoff because the database may still be starting.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	backoff := retry.WithMaxDuration(30*time.Second, retry.NewExponential(500*time.Millisecond))
	if err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		return retry.RetryableError(db.PingContext(ctx))
	}); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	m := &PostgresRepositoryManager{db: db}
	if err := m.RunMigrations(ctx); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

func (m *PostgresRepositoryManager) Conn() *sql.DB {
	return m.db
}

func (m *PostgresRepositoryManager) Principals() principals.Repository {
	return principals.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) AttemptStore() limiter.Store {
	return attempts.NewPostgresStore(m.db)
}

func (m *PostgresRepositoryManager) RevocationLedger() ledger.Ledger {
	return revocations.NewPostgresLedger(m.db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
