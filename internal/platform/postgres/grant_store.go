package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// PostgresGrantStore implements the store.GrantStore interface
// using a PostgreSQL database as the storage backend.
type PostgresGrantStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGrantStore creates a new PostgreSQL implementation of the
// GrantStore interface. If logger is nil, a default logger will be used.
func NewPostgresGrantStore(db store.DBTX, logger *slog.Logger) *PostgresGrantStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGrantStore{
		db:     db,
		logger: logger.With(slog.String("component", "grant_store")),
	}
}

// Ensure PostgresGrantStore implements store.GrantStore interface
var _ store.GrantStore = (*PostgresGrantStore)(nil)

// WithTx implements store.GrantStore.WithTx
func (s *PostgresGrantStore) WithTx(tx *sql.Tx) store.GrantStore {
	return &PostgresGrantStore{
		db:     tx,
		logger: s.logger,
	}
}

// Create implements store.GrantStore.Create
func (s *PostgresGrantStore) Create(ctx context.Context, grant *domain.AccessGrant) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := grant.Validate(); err != nil {
		log.Warn("grant validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", grant.UserID.String()),
			slog.String("module_id", grant.ModuleID.String()))
		return err
	}

	query := `
		INSERT INTO access_grants (user_id, module_id, level, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		grant.UserID,
		grant.ModuleID,
		grant.Level.String(),
		grant.CreatedAt,
	)
	if err != nil {
		log.Error("failed to create access grant",
			slog.String("error", err.Error()),
			slog.String("user_id", grant.UserID.String()),
			slog.String("module_id", grant.ModuleID.String()))
		return MapError(err)
	}

	log.Debug("access grant created",
		slog.String("user_id", grant.UserID.String()),
		slog.String("module_id", grant.ModuleID.String()),
		slog.String("level", grant.Level.String()))
	return nil
}

// GetLevel implements store.GrantStore.GetLevel
// A missing grant row is not an error: it resolves to domain.AccessNone.
func (s *PostgresGrantStore) GetLevel(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (domain.AccessLevel, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT level
		FROM access_grants
		WHERE user_id = $1 AND module_id = $2
	`

	var levelStr string
	err := s.db.QueryRowContext(ctx, query, userID, moduleID).Scan(&levelStr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.AccessNone, nil
		}
		log.Error("failed to resolve access level",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("module_id", moduleID.String()))
		return domain.AccessNone, MapError(err)
	}

	level, err := domain.ParseAccessLevel(levelStr)
	if err != nil {
		log.Error("stored access level is invalid",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.String("module_id", moduleID.String()),
			slog.String("level", levelStr))
		return domain.AccessNone, err
	}
	return level, nil
}
