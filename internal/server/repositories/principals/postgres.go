package principals

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/sessioncore/internal/common"
	"github.com/dmitrijs2005/sessioncore/internal/dbx"
	"github.com/dmitrijs2005/sessioncore/internal/server/models"
)

// PostgresRepository reads principals over dbx.DBTX (satisfied by *sql.DB
// or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Find(ctx context.Context, principalID string) (*models.Principal, error) {
	query := `
		SELECT id, credential_hash, disabled
		FROM principals
		WHERE id = $1
	`
	p := &models.Principal{}
	if err := r.db.QueryRowContext(ctx, query, principalID).Scan(&p.ID, &p.CredentialHash, &p.Disabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
