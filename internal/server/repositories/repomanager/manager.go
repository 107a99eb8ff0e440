// Package repomanager wires the PostgreSQL-backed stores together: it
// opens the pool, retries the initial ping, and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/sessioncore/internal/server/ledger"
	"github.com/dmitrijs2005/sessioncore/internal/server/limiter"
	"github.com/dmitrijs2005/sessioncore/internal/server/repositories/principals"
)

// RepositoryManager exposes the storage collaborators the session core
// consumes.
type RepositoryManager interface {
	Conn() *sql.DB
	Principals() principals.Repository
	AttemptStore() limiter.Store
	RevocationLedger() ledger.Ledger
	RunMigrations(ctx context.Context) error
	Close() error
}
