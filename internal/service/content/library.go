package content

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// ListLibrary implements Service.ListLibrary. Before listing, it lazily
// repairs the user's index: every module the user owns that lacks a
// library entry gets one backfilled, with the interaction time taken from
// the module's creation time. The backfill only inserts, so a listing
// never destroys existing entries.
func (s *contentService) ListLibrary(
	ctx context.Context,
	userID uuid.UUID,
) ([]*domain.LibraryEntry, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	inserted, err := s.library.BackfillOwned(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to backfill library: %w", err)
	}
	if inserted > 0 {
		log.Info("backfilled missing library entries",
			slog.String("user_id", userID.String()),
			slog.Int64("inserted", inserted))
	}

	entries, err := s.library.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list library: %w", err)
	}
	return entries, nil
}

// RepairLibraries implements Service.RepairLibraries: the administrative
// sweep over all access grants. Running it twice in succession inserts
// nothing on the second pass.
func (s *contentService) RepairLibraries(ctx context.Context) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	repaired, err := s.library.RepairFromGrants(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to repair libraries: %w", err)
	}

	log.Info("library repair sweep completed", slog.Int64("repaired", repaired))
	return repaired, nil
}

// RecordAttempt implements Service.RecordAttempt. The record is always
// stamped with the item's current content hash: progress recorded against
// content that has since changed is reset rather than silently continued.
func (s *contentService) RecordAttempt(
	ctx context.Context,
	userID, moduleID, itemID uuid.UUID,
	correct bool,
) (*domain.ProgressRecord, error) {
	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	item, err := s.loadItem(ctx, moduleID, itemID)
	if err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !level.CanView() && !module.Forkable {
		return nil, ErrUnauthorized
	}
	if err := ensureNotArchived(module, level); err != nil {
		return nil, err
	}

	record, err := s.progress.Get(ctx, userID, itemID)
	if err != nil {
		if !store.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to load progress: %w", err)
		}
		record, err = domain.NewProgressRecord(userID, itemID, item.ContentHash)
		if err != nil {
			return nil, err
		}
		record.RecordAttempt(correct)
		if err := s.progress.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to create progress record: %w", err)
		}
		return record, nil
	}

	if !record.MatchesHash(item.ContentHash) {
		record.RebindHash(item.ContentHash)
	}
	record.RecordAttempt(correct)
	if err := s.progress.Update(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to update progress record: %w", err)
	}
	return record, nil
}
