package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
)

// ModuleStore defines the interface for module and item persistence.
//
// Multi-row operations (CreateItems, item reconciliation during a module
// update, fork copies) MUST run within a transaction; obtain a
// transactional store via WithTx inside store.RunInTransaction. Calling
// them outside a transaction does not guarantee atomic behavior.
type ModuleStore interface {
	// Create saves a new module row. Items are inserted separately via
	// CreateItems so the caller controls transactional scope.
	Create(ctx context.Context, module *domain.Module) error

	// GetByID retrieves a module by its unique ID.
	// Returns ErrModuleNotFound if the module does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Module, error)

	// Update persists the module's mutable fields (title, description,
	// forkable, status, archived_at, updated_at). Provenance fields are
	// never touched. Returns ErrModuleNotFound if the module does not exist.
	Update(ctx context.Context, module *domain.Module) error

	// CreateItems bulk-inserts items as a single batched statement so fork
	// latency stays roughly constant regardless of item count.
	// All items must be valid according to domain validation rules.
	CreateItems(ctx context.Context, items []*domain.Item) error

	// ListItems returns the module's items ordered by position.
	ListItems(ctx context.Context, moduleID uuid.UUID) ([]*domain.Item, error)

	// GetItem retrieves an item by its unique ID.
	// Returns ErrItemNotFound if the item does not exist.
	GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error)

	// UpdateItem persists an item's content, hash, and position.
	// Returns ErrItemNotFound if the item does not exist.
	UpdateItem(ctx context.Context, item *domain.Item) error

	// DeleteItem removes an item row.
	// Returns ErrItemNotFound if the item does not exist.
	DeleteItem(ctx context.Context, id uuid.UUID) error

	// NextPosition returns the next free order position in the module:
	// max(position)+1, or 0 for an empty module.
	NextPosition(ctx context.Context, moduleID uuid.UUID) (int, error)

	// FindItemBySource locates the item in the given module whose
	// source_item_id equals sourceItemID. Used after a fork to find the
	// copy corresponding to the item the user was editing.
	// Returns ErrItemNotFound if no such item exists.
	FindItemBySource(ctx context.Context, moduleID, sourceItemID uuid.UUID) (*domain.Item, error)

	// WithTx returns a ModuleStore bound to the given transaction.
	WithTx(tx *sql.Tx) ModuleStore
}
