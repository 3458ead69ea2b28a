package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// ForkModule implements Service.ForkModule. The copy, its items, migrated
// progress, the OWNER grant, and the OWNER library entry are written in one
// transaction; any failure rolls back the entire fork with zero partial
// state. Concurrent forks of the same source by different users touch no
// shared mutable state and proceed independently.
func (s *contentService) ForkModule(
	ctx context.Context,
	userID, sourceModuleID uuid.UUID,
) (*ModuleWithItems, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	source, err := s.loadModule(ctx, sourceModuleID)
	if err != nil {
		return nil, err
	}
	level, err := s.access.Level(ctx, userID, sourceModuleID)
	if err != nil {
		return nil, err
	}
	if err := ensureNotArchived(source, level); err != nil {
		return nil, err
	}
	if !source.Forkable {
		return nil, ErrNotForkable
	}

	var forked *ModuleWithItems
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		var txErr error
		forked, txErr = s.forkInTx(ctx, tx, userID, source)
		return txErr
	})
	if err != nil {
		log.Error("failed to fork module",
			slog.String("error", err.Error()),
			slog.String("source_module_id", sourceModuleID.String()),
			slog.String("user_id", userID.String()))
		return nil, err
	}

	log.Info("module forked",
		slog.String("source_module_id", sourceModuleID.String()),
		slog.String("forked_module_id", forked.Module.ID.String()),
		slog.String("user_id", userID.String()),
		slog.Int("item_count", len(forked.Items)))

	return forked, nil
}

// forkInTx performs the fork inside an open transaction:
//
//  1. load the source items in order
//  2. create the copy module with provenance set to the source
//  3. batch-insert item copies preserving order, each linked to its source
//     item, content and hash copied verbatim
//  4. migrate the user's progress records whose stamped hash still matches
//     the source item's current hash, forward only
//  5. grant ownership and index the copy in the user's library
func (s *contentService) forkInTx(
	ctx context.Context,
	tx *sql.Tx,
	userID uuid.UUID,
	source *domain.Module,
) (*ModuleWithItems, error) {
	modules := s.modules.WithTx(tx)
	grants := s.grants.WithTx(tx)
	library := s.library.WithTx(tx)
	progress := s.progress.WithTx(tx)

	sourceItems, err := modules.ListItems(ctx, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list source items: %w", err)
	}

	forkedModule, err := domain.NewForkedModule(userID, source)
	if err != nil {
		return nil, err
	}
	if err := modules.Create(ctx, forkedModule); err != nil {
		return nil, fmt.Errorf("failed to create forked module: %w", err)
	}

	forkedItems := make([]*domain.Item, 0, len(sourceItems))
	for _, sourceItem := range sourceItems {
		item, err := domain.NewForkedItem(forkedModule.ID, sourceItem)
		if err != nil {
			return nil, err
		}
		forkedItems = append(forkedItems, item)
	}
	if len(forkedItems) > 0 {
		if err := modules.CreateItems(ctx, forkedItems); err != nil {
			return nil, fmt.Errorf("failed to copy items: %w", err)
		}
	}

	if err := s.migrateProgress(ctx, progress, userID, sourceItems, forkedItems); err != nil {
		return nil, err
	}

	grant, err := domain.NewAccessGrant(userID, forkedModule.ID, domain.AccessOwner)
	if err != nil {
		return nil, err
	}
	if err := grants.Create(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to grant ownership of fork: %w", err)
	}

	entry, err := domain.NewLibraryEntry(userID, forkedModule.ID, domain.LibraryRoleOwner)
	if err != nil {
		return nil, err
	}
	if err := library.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to index fork in library: %w", err)
	}

	return &ModuleWithItems{Module: forkedModule, Items: forkedItems}, nil
}

// migrateProgress copies the user's progress onto the fork's items for
// every source item whose current hash still matches the hash the progress
// was recorded against. Items without matching progress start fresh.
func (s *contentService) migrateProgress(
	ctx context.Context,
	progress store.ProgressStore,
	userID uuid.UUID,
	sourceItems, forkedItems []*domain.Item,
) error {
	if len(sourceItems) == 0 {
		return nil
	}

	sourceIDs := make([]uuid.UUID, 0, len(sourceItems))
	for _, item := range sourceItems {
		sourceIDs = append(sourceIDs, item.ID)
	}

	records, err := progress.GetForItems(ctx, userID, sourceIDs)
	if err != nil {
		return fmt.Errorf("failed to load progress for migration: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var copies []*domain.ProgressRecord
	for i, sourceItem := range sourceItems {
		record, ok := records[sourceItem.ID]
		if !ok {
			continue
		}
		// A record stamped against content that has since changed is
		// stale and must not follow the copy.
		if !record.MatchesHash(sourceItem.ContentHash) {
			continue
		}
		migrated, err := record.CopyForItem(forkedItems[i].ID)
		if err != nil {
			return err
		}
		copies = append(copies, migrated)
	}

	if len(copies) == 0 {
		return nil
	}
	if err := progress.CreateMultiple(ctx, copies); err != nil {
		return fmt.Errorf("failed to migrate progress: %w", err)
	}
	return nil
}

// forkAndApplyUpdate forks the module and applies the caller's edit to the
// copy of the addressed item, all in one transaction. It exists so that a
// single user action ("edit this item") results in exactly one fork plus
// one edit. Correspondence between the addressed item and its copy is by
// identity (source_item_id), never by content.
func (s *contentService) forkAndApplyUpdate(
	ctx context.Context,
	userID uuid.UUID,
	source *domain.Module,
	itemID uuid.UUID,
	newContent json.RawMessage,
) (*ModuleWithItems, *domain.Item, error) {
	var (
		forked     *ModuleWithItems
		forkedItem *domain.Item
	)
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		modules := s.modules.WithTx(tx)

		var txErr error
		forked, txErr = s.forkInTx(ctx, tx, userID, source)
		if txErr != nil {
			return txErr
		}

		forkedItem, txErr = modules.FindItemBySource(ctx, forked.Module.ID, itemID)
		if txErr != nil {
			return fmt.Errorf("failed to locate forked item: %w", txErr)
		}

		if txErr := forkedItem.SetContent(newContent); txErr != nil {
			return txErr
		}
		if txErr := modules.UpdateItem(ctx, forkedItem); txErr != nil {
			return fmt.Errorf("failed to apply edit to forked item: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return forked, forkedItem, nil
}

// forkAndDeleteItem forks the module and deletes the copy of the addressed
// item, all in one transaction.
func (s *contentService) forkAndDeleteItem(
	ctx context.Context,
	userID uuid.UUID,
	source *domain.Module,
	itemID uuid.UUID,
) (*ModuleWithItems, error) {
	var forked *ModuleWithItems
	err := s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		modules := s.modules.WithTx(tx)

		var txErr error
		forked, txErr = s.forkInTx(ctx, tx, userID, source)
		if txErr != nil {
			return txErr
		}

		forkedItem, txErr := modules.FindItemBySource(ctx, forked.Module.ID, itemID)
		if txErr != nil {
			return fmt.Errorf("failed to locate forked item: %w", txErr)
		}
		if txErr := modules.DeleteItem(ctx, forkedItem.ID); txErr != nil {
			return fmt.Errorf("failed to delete forked item: %w", txErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return forked, nil
}
