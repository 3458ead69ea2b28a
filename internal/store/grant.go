package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
)

// GrantStore defines the interface for access grant persistence. Grants are
// the single source of truth for what a user may do with a module.
type GrantStore interface {
	// Create saves a new access grant.
	// Returns ErrDuplicate if a grant already exists for the pair.
	Create(ctx context.Context, grant *domain.AccessGrant) error

	// GetLevel resolves the user's access level on a module. A missing
	// grant is not an error: it resolves to domain.AccessNone.
	GetLevel(ctx context.Context, userID, moduleID uuid.UUID) (domain.AccessLevel, error)

	// WithTx returns a GrantStore bound to the given transaction.
	WithTx(tx *sql.Tx) GrantStore
}
