package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// PostgresLibraryStore implements the store.LibraryStore interface
// using a PostgreSQL database as the storage backend.
//
// The two reconciliation passes (BackfillOwned, RepairFromGrants) are each a
// single INSERT ... SELECT guarded by NOT EXISTS, so they are idempotent and
// safe to run concurrently with normal writes.
type PostgresLibraryStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresLibraryStore creates a new PostgreSQL implementation of the
// LibraryStore interface. If logger is nil, a default logger will be used.
func NewPostgresLibraryStore(db store.DBTX, logger *slog.Logger) *PostgresLibraryStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresLibraryStore{
		db:     db,
		logger: logger.With(slog.String("component", "library_store")),
	}
}

// Ensure PostgresLibraryStore implements store.LibraryStore interface
var _ store.LibraryStore = (*PostgresLibraryStore)(nil)

// WithTx implements store.LibraryStore.WithTx
func (s *PostgresLibraryStore) WithTx(tx *sql.Tx) store.LibraryStore {
	return &PostgresLibraryStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.LibraryStore.Create
func (s *PostgresLibraryStore) Create(ctx context.Context, entry *domain.LibraryEntry) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := entry.Validate(); err != nil {
		log.Warn("library entry validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()),
			slog.String("module_id", entry.ModuleID.String()))
		return err
	}

	query := `
		INSERT INTO library_entries (user_id, module_id, role, last_interaction_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		entry.UserID,
		entry.ModuleID,
		entry.Role,
		entry.LastInteractionAt,
		entry.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create library entry",
			slog.String("error", err.Error()),
			slog.String("user_id", entry.UserID.String()),
			slog.String("module_id", entry.ModuleID.String()))
		return MapError(err)
	}

	return nil
}

// Get implements store.LibraryStore.Get
func (s *PostgresLibraryStore) Get(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (*domain.LibraryEntry, error) {
	query := `
		SELECT user_id, module_id, role, last_interaction_at, created_at
		FROM library_entries
		WHERE user_id = $1 AND module_id = $2
	`

	entry, err := scanLibraryEntry(s.db.QueryRowContext(ctx, query, userID, moduleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, MapError(err)
	}
	return entry, nil
}

// Touch implements store.LibraryStore.Touch
func (s *PostgresLibraryStore) Touch(ctx context.Context, userID, moduleID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE library_entries
		SET last_interaction_at = $1
		WHERE user_id = $2 AND module_id = $3
	`
	result, err := s.db.ExecContext(ctx, query, time.Now().UTC(), userID, moduleID)
	if err != nil {
		log.Error("failed to touch library entry",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("module_id", moduleID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "library entry")
}

// ListByUser implements store.LibraryStore.ListByUser
func (s *PostgresLibraryStore) ListByUser(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LibraryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, module_id, role, last_interaction_at, created_at
		FROM library_entries
		WHERE user_id = $1
		ORDER BY last_interaction_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		log.Error("failed to query library entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	entries := []*domain.LibraryEntry{}
	for rows.Next() {
		entry, err := scanLibraryEntry(rows)
		if err != nil {
			log.Error("failed to scan library entry row", slog.String("error", err.Error()))
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning library rows", slog.String("error", err.Error()))
		return nil, err
	}

	return entries, nil
}

// BackfillOwned implements store.LibraryStore.BackfillOwned
// Owned modules missing from the index get an OWNER entry, with the
// interaction time seeded from the module's creation time so backfilled
// entries sort where the module would have appeared originally.
func (s *PostgresLibraryStore) BackfillOwned(ctx context.Context, userID uuid.UUID) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO library_entries (user_id, module_id, role, last_interaction_at, created_at)
		SELECT m.owner_id, m.id, $1, m.created_at, NOW()
		FROM modules m
		WHERE m.owner_id = $2
		  AND NOT EXISTS (
			SELECT 1 FROM library_entries le
			WHERE le.user_id = m.owner_id AND le.module_id = m.id
		  )
	`
	result, err := s.db.ExecContext(ctx, query, domain.LibraryRoleOwner, userID)
	if err != nil {
		log.Error("failed to backfill owned library entries",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}

	return result.RowsAffected()
}

// RepairFromGrants implements store.LibraryStore.RepairFromGrants
func (s *PostgresLibraryStore) RepairFromGrants(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO library_entries (user_id, module_id, role, last_interaction_at, created_at)
		SELECT g.user_id, g.module_id, $1, g.created_at, NOW()
		FROM access_grants g
		WHERE NOT EXISTS (
			SELECT 1 FROM library_entries le
			WHERE le.user_id = g.user_id AND le.module_id = g.module_id
		)
	`
	result, err := s.db.ExecContext(ctx, query, domain.LibraryRoleOwner)
	if err != nil {
		log.Error("failed to repair library entries from grants",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	return result.RowsAffected()
}

func scanLibraryEntry(row rowScanner) (*domain.LibraryEntry, error) {
	var (
		entry domain.LibraryEntry
		role  string
	)

	err := row.Scan(
		&entry.UserID,
		&entry.ModuleID,
		&role,
		&entry.LastInteractionAt,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Role = domain.LibraryRole(role)
	return &entry, nil
}
