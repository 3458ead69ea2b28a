package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// PostgresProgressStore implements the store.ProgressStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProgressStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProgressStore creates a new PostgreSQL implementation of the
// ProgressStore interface. If logger is nil, a default logger will be used.
func NewPostgresProgressStore(db store.DBTX, logger *slog.Logger) *PostgresProgressStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProgressStore{
		db:     db,
		logger: logger.With(slog.String("component", "progress_store")),
	}
}

// Ensure PostgresProgressStore implements store.ProgressStore interface
var _ store.ProgressStore = (*PostgresProgressStore)(nil)

// WithTx implements store.ProgressStore.WithTx
func (s *PostgresProgressStore) WithTx(tx *sql.Tx) store.ProgressStore {
	return &PostgresProgressStore{
		db:     tx,
		logger: s.logger,
	}
}

const progressColumns = `id, user_id, item_id, content_hash, attempts, correct_count,
	last_correct, strength, interval_days, ease_factor, next_review_at,
	created_at, updated_at`

// Create implements store.ProgressStore.Create
func (s *PostgresProgressStore) Create(ctx context.Context, record *domain.ProgressRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("progress record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return err
	}

	query := `
		INSERT INTO progress_records (` + progressColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := s.db.ExecContext(ctx, query, progressArgs(record)...)
	if err != nil {
		log.Error("failed to create progress record",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	return nil
}

// CreateMultiple implements store.ProgressStore.CreateMultiple
// All records are inserted with a single multi-row statement; used by fork
// migration inside the fork transaction.
func (s *PostgresProgressStore) CreateMultiple(ctx context.Context, records []*domain.ProgressRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(records) == 0 {
		return nil
	}

	for _, record := range records {
		if err := record.Validate(); err != nil {
			log.Warn("progress record validation failed during bulk create",
				slog.String("error", err.Error()),
				slog.String("record_id", record.ID.String()))
			return err
		}
	}

	const cols = 13
	var sb strings.Builder
	sb.WriteString(`INSERT INTO progress_records (` + progressColumns + `) VALUES `)
	args := make([]interface{}, 0, len(records)*cols)
	for i, record := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for c := 1; c <= cols; c++ {
			if c > 1 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*cols+c)
		}
		sb.WriteString(")")
		args = append(args, progressArgs(record)...)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		log.Error("failed to bulk insert progress records",
			slog.String("error", err.Error()),
			slog.Int("count", len(records)))
		return MapError(err)
	}

	log.Debug("progress records created", slog.Int("count", len(records)))
	return nil
}

// Get implements store.ProgressStore.Get
func (s *PostgresProgressStore) Get(
	ctx context.Context,
	userID, itemID uuid.UUID,
) (*domain.ProgressRecord, error) {
	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE user_id = $1 AND item_id = $2
	`

	record, err := scanProgressRecord(s.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProgressNotFound
		}
		return nil, MapError(err)
	}
	return record, nil
}

// GetForItems implements store.ProgressStore.GetForItems
func (s *PostgresProgressStore) GetForItems(
	ctx context.Context,
	userID uuid.UUID,
	itemIDs []uuid.UUID,
) (map[uuid.UUID]*domain.ProgressRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	records := make(map[uuid.UUID]*domain.ProgressRecord, len(itemIDs))
	if len(itemIDs) == 0 {
		return records, nil
	}

	placeholders := make([]string, 0, len(itemIDs))
	args := make([]interface{}, 0, len(itemIDs)+1)
	args = append(args, userID)
	for i, id := range itemIDs {
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, id)
	}

	query := `
		SELECT ` + progressColumns + `
		FROM progress_records
		WHERE user_id = $1 AND item_id IN (` + strings.Join(placeholders, ", ") + `)
	`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query progress records",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()),
			slog.Int("item_count", len(itemIDs)))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	for rows.Next() {
		record, err := scanProgressRecord(rows)
		if err != nil {
			log.Error("failed to scan progress row", slog.String("error", err.Error()))
			return nil, err
		}
		records[record.ItemID] = record
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning progress rows", slog.String("error", err.Error()))
		return nil, err
	}

	return records, nil
}

// Update implements store.ProgressStore.Update
func (s *PostgresProgressStore) Update(ctx context.Context, record *domain.ProgressRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("progress record validation failed during update",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return err
	}

	query := `
		UPDATE progress_records
		SET content_hash = $1, attempts = $2, correct_count = $3, last_correct = $4,
			strength = $5, interval_days = $6, ease_factor = $7, next_review_at = $8,
			updated_at = $9
		WHERE id = $10
	`
	result, err := s.db.ExecContext(
		ctx,
		query,
		record.ContentHash,
		record.Attempts,
		record.CorrectCount,
		record.LastCorrect,
		record.Strength,
		record.IntervalDays,
		record.EaseFactor,
		record.NextReviewAt,
		record.UpdatedAt,
		record.ID,
	)
	if err != nil {
		log.Error("failed to update progress record",
			slog.String("error", err.Error()),
			slog.String("record_id", record.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "progress record"); err != nil {
		return store.ErrProgressNotFound
	}
	return nil
}

func progressArgs(r *domain.ProgressRecord) []interface{} {
	return []interface{}{
		r.ID,
		r.UserID,
		r.ItemID,
		r.ContentHash,
		r.Attempts,
		r.CorrectCount,
		r.LastCorrect,
		r.Strength,
		r.IntervalDays,
		r.EaseFactor,
		r.NextReviewAt,
		r.CreatedAt,
		r.UpdatedAt,
	}
}

func scanProgressRecord(row rowScanner) (*domain.ProgressRecord, error) {
	var record domain.ProgressRecord

	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.ItemID,
		&record.ContentHash,
		&record.Attempts,
		&record.CorrectCount,
		&record.LastCorrect,
		&record.Strength,
		&record.IntervalDays,
		&record.EaseFactor,
		&record.NextReviewAt,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
