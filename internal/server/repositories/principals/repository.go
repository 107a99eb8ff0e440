// Package principals declares the read-only principal store consumed by
// the session core, and its PostgreSQL implementation.
package principals

import (
	"context"

	"github.com/dmitrijs2005/sessioncore/internal/server/models"
)

// Repository looks up principals. This core never mutates them; the
// owning system manages their lifecycle.
type Repository interface {
	// Find returns the principal or common.ErrorNotFound when absent.
	Find(ctx context.Context, principalID string) (*models.Principal, error)
}
