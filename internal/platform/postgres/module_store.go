package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// PostgresModuleStore implements the store.ModuleStore interface
// using a PostgreSQL database as the storage backend.
type PostgresModuleStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresModuleStore creates a new PostgreSQL implementation of the
// ModuleStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller. If logger is nil, a
// default logger will be used.
func NewPostgresModuleStore(db store.DBTX, logger *slog.Logger) *PostgresModuleStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresModuleStore{
		db:     db,
		logger: logger.With(slog.String("component", "module_store")),
	}
}

// Ensure PostgresModuleStore implements store.ModuleStore interface
var _ store.ModuleStore = (*PostgresModuleStore)(nil)

// WithTx implements store.ModuleStore.WithTx
func (s *PostgresModuleStore) WithTx(tx *sql.Tx) store.ModuleStore {
	return &PostgresModuleStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.ModuleStore.Create
func (s *PostgresModuleStore) Create(ctx context.Context, module *domain.Module) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := module.Validate(); err != nil {
		log.Warn("module validation failed during create",
			slog.String("error", err.Error()),
			slog.String("module_id", module.ID.String()))
		return err
	}

	query := `
		INSERT INTO modules (id, owner_id, creator_id, title, description, module_type,
			forkable, status, source_module_id, created_at, updated_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		module.ID,
		module.OwnerID,
		module.CreatorID,
		module.Title,
		module.Description,
		module.Type,
		module.Forkable,
		module.Status,
		uuidPtrToNull(module.SourceModuleID),
		module.CreatedAt,
		module.UpdatedAt,
		timePtrToNull(module.ArchivedAt),
	)
	if err != nil {
		log.Error("failed to create module",
			slog.String("error", err.Error()),
			slog.String("module_id", module.ID.String()))
		return MapError(err)
	}

	log.Debug("module created",
		slog.String("module_id", module.ID.String()),
		slog.String("owner_id", module.OwnerID.String()))
	return nil
}

// GetByID implements store.ModuleStore.GetByID
func (s *PostgresModuleStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Module, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, creator_id, title, description, module_type,
			forkable, status, source_module_id, created_at, updated_at, archived_at
		FROM modules
		WHERE id = $1
	`

	module, err := scanModule(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrModuleNotFound
		}
		log.Error("failed to get module by ID",
			slog.String("error", err.Error()),
			slog.String("module_id", id.String()))
		return nil, MapError(err)
	}

	return module, nil
}

// Update implements store.ModuleStore.Update
// Only mutable fields are written; owner, creator, type, and provenance are
// fixed at creation.
func (s *PostgresModuleStore) Update(ctx context.Context, module *domain.Module) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := module.Validate(); err != nil {
		log.Warn("module validation failed during update",
			slog.String("error", err.Error()),
			slog.String("module_id", module.ID.String()))
		return err
	}

	query := `
		UPDATE modules
		SET title = $1, description = $2, forkable = $3, status = $4,
			archived_at = $5, updated_at = $6
		WHERE id = $7
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		module.Title,
		module.Description,
		module.Forkable,
		module.Status,
		timePtrToNull(module.ArchivedAt),
		module.UpdatedAt,
		module.ID,
	)
	if err != nil {
		log.Error("failed to update module",
			slog.String("error", err.Error()),
			slog.String("module_id", module.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "module"); err != nil {
		return store.ErrModuleNotFound
	}
	return nil
}

// CreateItems implements store.ModuleStore.CreateItems
// All items are inserted with a single multi-row statement so a fork of a
// large module does not degrade into per-row round trips.
func (s *PostgresModuleStore) CreateItems(ctx context.Context, items []*domain.Item) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			log.Warn("item validation failed during bulk create",
				slog.String("error", err.Error()),
				slog.String("item_id", item.ID.String()))
			return err
		}
	}

	const cols = 8
	var sb strings.Builder
	sb.WriteString(`
		INSERT INTO items (id, module_id, position, content, content_hash,
			source_item_id, created_at, updated_at)
		VALUES `)
	args := make([]interface{}, 0, len(items)*cols)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8)
		args = append(args,
			item.ID,
			item.ModuleID,
			item.Position,
			[]byte(item.Content),
			item.ContentHash,
			uuidPtrToNull(item.SourceItemID),
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		log.Error("failed to bulk insert items",
			slog.String("error", err.Error()),
			slog.String("module_id", items[0].ModuleID.String()),
			slog.Int("count", len(items)))
		return MapError(err)
	}

	log.Debug("items created",
		slog.String("module_id", items[0].ModuleID.String()),
		slog.Int("count", len(items)))
	return nil
}

// ListItems implements store.ModuleStore.ListItems
func (s *PostgresModuleStore) ListItems(ctx context.Context, moduleID uuid.UUID) ([]*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, module_id, position, content, content_hash,
			source_item_id, created_at, updated_at
		FROM items
		WHERE module_id = $1
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, moduleID)
	if err != nil {
		log.Error("failed to query items",
			slog.String("error", err.Error()),
			slog.String("module_id", moduleID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			log.Error("failed to scan item row", slog.String("error", err.Error()))
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning item rows", slog.String("error", err.Error()))
		return nil, err
	}

	return items, nil
}

// GetItem implements store.ModuleStore.GetItem
func (s *PostgresModuleStore) GetItem(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `
		SELECT id, module_id, position, content, content_hash,
			source_item_id, created_at, updated_at
		FROM items
		WHERE id = $1
	`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, MapError(err)
	}
	return item, nil
}

// UpdateItem implements store.ModuleStore.UpdateItem
func (s *PostgresModuleStore) UpdateItem(ctx context.Context, item *domain.Item) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := item.Validate(); err != nil {
		log.Warn("item validation failed during update",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return err
	}

	query := `
		UPDATE items
		SET position = $1, content = $2, content_hash = $3, updated_at = $4
		WHERE id = $5
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		item.Position,
		[]byte(item.Content),
		item.ContentHash,
		item.UpdatedAt,
		item.ID,
	)
	if err != nil {
		log.Error("failed to update item",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "item"); err != nil {
		return store.ErrItemNotFound
	}
	return nil
}

// DeleteItem implements store.ModuleStore.DeleteItem
func (s *PostgresModuleStore) DeleteItem(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete item",
			slog.String("error", err.Error()),
			slog.String("item_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "item"); err != nil {
		return store.ErrItemNotFound
	}
	return nil
}

// NextPosition implements store.ModuleStore.NextPosition
func (s *PostgresModuleStore) NextPosition(ctx context.Context, moduleID uuid.UUID) (int, error) {
	query := `
		SELECT COALESCE(MAX(position) + 1, 0)
		FROM items
		WHERE module_id = $1
	`

	var next int
	if err := s.db.QueryRowContext(ctx, query, moduleID).Scan(&next); err != nil {
		return 0, MapError(err)
	}
	return next, nil
}

// FindItemBySource implements store.ModuleStore.FindItemBySource
func (s *PostgresModuleStore) FindItemBySource(
	ctx context.Context,
	moduleID, sourceItemID uuid.UUID,
) (*domain.Item, error) {
	query := `
		SELECT id, module_id, position, content, content_hash,
			source_item_id, created_at, updated_at
		FROM items
		WHERE module_id = $1 AND source_item_id = $2
	`

	item, err := scanItem(s.db.QueryRowContext(ctx, query, moduleID, sourceItemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrItemNotFound
		}
		return nil, MapError(err)
	}
	return item, nil
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanModule(row rowScanner) (*domain.Module, error) {
	var (
		module     domain.Module
		moduleType string
		status     string
		sourceID   uuid.NullUUID
		archivedAt sql.NullTime
	)

	err := row.Scan(
		&module.ID,
		&module.OwnerID,
		&module.CreatorID,
		&module.Title,
		&module.Description,
		&moduleType,
		&module.Forkable,
		&status,
		&sourceID,
		&module.CreatedAt,
		&module.UpdatedAt,
		&archivedAt,
	)
	if err != nil {
		return nil, err
	}

	module.Type = domain.ModuleType(moduleType)
	module.Status = domain.ModuleStatus(status)
	if sourceID.Valid {
		id := sourceID.UUID
		module.SourceModuleID = &id
	}
	if archivedAt.Valid {
		t := archivedAt.Time
		module.ArchivedAt = &t
	}
	return &module, nil
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var (
		item     domain.Item
		content  []byte
		sourceID uuid.NullUUID
	)

	err := row.Scan(
		&item.ID,
		&item.ModuleID,
		&item.Position,
		&content,
		&item.ContentHash,
		&sourceID,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Content = content
	if sourceID.Valid {
		id := sourceID.UUID
		item.SourceItemID = &id
	}
	return &item, nil
}

func uuidPtrToNull(id *uuid.UUID) uuid.NullUUID {
	if id == nil {
		return uuid.NullUUID{}
	}
	return uuid.NullUUID{UUID: *id, Valid: true}
}

func timePtrToNull(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
