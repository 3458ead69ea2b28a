package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
)

// ProgressStore defines the interface for progress record persistence.
type ProgressStore interface {
	// Create saves a new progress record.
	// Returns ErrDuplicate if a record already exists for the (user, item) pair.
	Create(ctx context.Context, record *domain.ProgressRecord) error

	// CreateMultiple bulk-inserts progress records as a single batched
	// statement. Used by fork migration; MUST run within a transaction.
	CreateMultiple(ctx context.Context, records []*domain.ProgressRecord) error

	// Get retrieves the record for the given (user, item) pair.
	// Returns ErrProgressNotFound if no record exists.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.ProgressRecord, error)

	// GetForItems returns the user's records for the given items, keyed by
	// item ID. Items without a record are absent from the map.
	GetForItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (map[uuid.UUID]*domain.ProgressRecord, error)

	// Update persists the record's counters, hash binding, and scheduling
	// state. Returns ErrProgressNotFound if the record does not exist.
	Update(ctx context.Context, record *domain.ProgressRecord) error

	// WithTx returns a ProgressStore bound to the given transaction.
	WithTx(tx *sql.Tx) ProgressStore
}
