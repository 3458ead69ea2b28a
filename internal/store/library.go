package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
)

// LibraryStore defines the interface for library entry persistence and the
// two reconciliation passes. Both reconciliation operations are pure
// backfills: they only insert missing rows, never delete or overwrite, so
// running them repeatedly is idempotent.
type LibraryStore interface {
	// Create saves a new library entry.
	// Returns ErrDuplicate if an entry already exists for the pair.
	Create(ctx context.Context, entry *domain.LibraryEntry) error

	// Get retrieves the entry for the given (user, module) pair.
	// Returns ErrNotFound if no entry exists.
	Get(ctx context.Context, userID, moduleID uuid.UUID) (*domain.LibraryEntry, error)

	// Touch updates the entry's last interaction timestamp.
	// Returns ErrNotFound if no entry exists.
	Touch(ctx context.Context, userID, moduleID uuid.UUID) error

	// ListByUser returns the user's library entries, most recently
	// interacted with first.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LibraryEntry, error)

	// BackfillOwned inserts an OWNER entry for every module the user owns
	// that lacks one, backfilling last_interaction_at from the module's
	// creation time. Returns the number of rows inserted.
	BackfillOwned(ctx context.Context, userID uuid.UUID) (int64, error)

	// RepairFromGrants sweeps all access grants and inserts a missing
	// entry for each (user, module) pair found, with role OWNER.
	// Returns the number of rows inserted.
	RepairFromGrants(ctx context.Context) (int64, error)

	// WithTx returns a LibraryStore bound to the given transaction.
	WithTx(tx *sql.Tx) LibraryStore
}
