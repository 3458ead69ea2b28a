package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/generation"
	"github.com/phrazzld/tome-api/internal/platform/logger"
	"github.com/phrazzld/tome-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*contentService)(nil)

// contentService implements the Service interface over the store layer.
// Atomicity is delegated entirely to the injected transaction runner; the
// service holds no locks and performs no background work.
type contentService struct {
	modules   store.ModuleStore
	grants    store.GrantStore
	library   store.LibraryStore
	progress  store.ProgressStore
	access    *AccessController
	generator generation.Generator
	runTx     store.TxRunner
	logger    *slog.Logger
}

// NewService creates a content Service. The transaction runner wraps every
// multi-row operation; tests substitute a runner that calls the function
// directly against in-memory stores.
// The generator may be nil, which disables AI item generation.
func NewService(
	runTx store.TxRunner,
	modules store.ModuleStore,
	grants store.GrantStore,
	library store.LibraryStore,
	progress store.ProgressStore,
	generator generation.Generator,
	logger *slog.Logger,
) Service {
	if runTx == nil {
		panic("runTx cannot be nil")
	}
	if modules == nil {
		panic("modules cannot be nil")
	}
	if grants == nil {
		panic("grants cannot be nil")
	}
	if library == nil {
		panic("library cannot be nil")
	}
	if progress == nil {
		panic("progress cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &contentService{
		modules:   modules,
		grants:    grants,
		library:   library,
		progress:  progress,
		access:    NewAccessController(grants),
		generator: generator,
		runTx:     runTx,
		logger:    logger.With(slog.String("component", "content_service")),
	}
}

// CreateModule implements Service.CreateModule. Module, batched items,
// OWNER grant, and OWNER library entry are written as one unit; partial
// failure leaves no rows.
func (s *contentService) CreateModule(
	ctx context.Context,
	ownerID uuid.UUID,
	spec ModuleSpec,
) (*ModuleWithItems, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	// Validate every payload before touching storage.
	for i, raw := range spec.Items {
		if err := domain.ValidateContent(spec.Type, raw); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	module, err := domain.NewModule(ownerID, spec.Title, spec.Description, spec.Type, spec.Forkable)
	if err != nil {
		return nil, err
	}

	items := make([]*domain.Item, 0, len(spec.Items))
	for i, raw := range spec.Items {
		item, err := domain.NewItem(module.ID, i, raw)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, item)
	}

	grant, err := domain.NewAccessGrant(ownerID, module.ID, domain.AccessOwner)
	if err != nil {
		return nil, err
	}
	entry, err := domain.NewLibraryEntry(ownerID, module.ID, domain.LibraryRoleOwner)
	if err != nil {
		return nil, err
	}

	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		modules := s.modules.WithTx(tx)
		grants := s.grants.WithTx(tx)
		library := s.library.WithTx(tx)

		if err := modules.Create(ctx, module); err != nil {
			return fmt.Errorf("failed to create module: %w", err)
		}
		if len(items) > 0 {
			if err := modules.CreateItems(ctx, items); err != nil {
				return fmt.Errorf("failed to create items: %w", err)
			}
		}
		if err := grants.Create(ctx, grant); err != nil {
			return fmt.Errorf("failed to create owner grant: %w", err)
		}
		if err := library.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to create library entry: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create module",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, err
	}

	log.Info("module created",
		slog.String("module_id", module.ID.String()),
		slog.String("owner_id", ownerID.String()),
		slog.Int("item_count", len(items)))

	return &ModuleWithItems{Module: module, Items: items}, nil
}

// GetModule implements Service.GetModule.
func (s *contentService) GetModule(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (*ModuleWithItems, error) {
	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}

	// Forkable modules are readable by anyone; otherwise a grant is needed.
	if !level.CanView() && !module.Forkable {
		return nil, ErrUnauthorized
	}

	if err := ensureNotArchived(module, level); err != nil {
		return nil, err
	}

	items, err := s.modules.ListItems(ctx, moduleID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return &ModuleWithItems{Module: module, Items: items}, nil
}

// UpdateModule implements Service.UpdateModule. Item reconciliation matches
// by item identity: items present in both sets are updated in place with
// content re-hashed and order taken from the incoming list, items missing
// from the incoming set are deleted, and new items are appended at the end.
// The whole reconciliation is one transaction so a failed item write never
// leaves the module in a mixed state.
func (s *contentService) UpdateModule(
	ctx context.Context,
	userID, moduleID uuid.UUID,
	patch ModulePatch,
) (*ModuleWithItems, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !level.IsOwner() {
		return nil, ErrUnauthorized
	}

	if patch.Items != nil {
		for i, p := range patch.Items {
			if err := domain.ValidateContent(module.Type, p.Content); err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
		}
	}

	applyModulePatch(module, patch)

	var items []*domain.Item
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		modules := s.modules.WithTx(tx)

		if err := modules.Update(ctx, module); err != nil {
			return fmt.Errorf("failed to update module: %w", err)
		}

		if patch.Items == nil {
			var listErr error
			items, listErr = modules.ListItems(ctx, moduleID)
			return listErr
		}

		reconciled, err := reconcileItems(ctx, modules, module, patch.Items)
		if err != nil {
			return err
		}
		items = reconciled
		return nil
	})
	if err != nil {
		log.Error("failed to update module",
			slog.String("error", err.Error()),
			slog.String("module_id", moduleID.String()))
		return nil, err
	}

	log.Info("module updated",
		slog.String("module_id", moduleID.String()),
		slog.Int("item_count", len(items)))

	return &ModuleWithItems{Module: module, Items: items}, nil
}

// reconcileItems applies an incoming item list against a module's existing
// items inside the caller's transaction.
func reconcileItems(
	ctx context.Context,
	modules store.ModuleStore,
	module *domain.Module,
	incoming []ItemPatch,
) ([]*domain.Item, error) {
	existing, err := modules.ListItems(ctx, module.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	byID := make(map[uuid.UUID]*domain.Item, len(existing))
	for _, item := range existing {
		byID[item.ID] = item
	}

	kept := make([]*domain.Item, 0, len(incoming))
	var inserts []*domain.Item
	seen := make(map[uuid.UUID]bool, len(incoming))
	position := 0

	// Matched items first, in incoming order; unknown IDs and nil IDs are
	// treated as new items and collected for the append pass.
	for _, p := range incoming {
		if p.ID != uuid.Nil {
			if item, ok := byID[p.ID]; ok {
				seen[p.ID] = true
				if err := item.SetContent(p.Content); err != nil {
					return nil, err
				}
				item.Position = position
				position++
				if err := modules.UpdateItem(ctx, item); err != nil {
					return nil, fmt.Errorf("failed to update item %s: %w", item.ID, err)
				}
				kept = append(kept, item)
				continue
			}
		}
		item, err := domain.NewItem(module.ID, 0, p.Content)
		if err != nil {
			return nil, err
		}
		inserts = append(inserts, item)
	}

	// Items only in the existing set are deleted.
	for _, item := range existing {
		if !seen[item.ID] {
			if err := modules.DeleteItem(ctx, item.ID); err != nil {
				return nil, fmt.Errorf("failed to delete item %s: %w", item.ID, err)
			}
		}
	}

	// Items only in the incoming set are inserted at the end.
	for _, item := range inserts {
		item.Position = position
		position++
	}
	if len(inserts) > 0 {
		if err := modules.CreateItems(ctx, inserts); err != nil {
			return nil, fmt.Errorf("failed to insert items: %w", err)
		}
		kept = append(kept, inserts...)
	}

	return kept, nil
}

// applyModulePatch copies the patch's set fields onto the module.
func applyModulePatch(module *domain.Module, patch ModulePatch) {
	if patch.Title != nil {
		module.Title = *patch.Title
	}
	if patch.Description != nil {
		module.Description = *patch.Description
	}
	if patch.Forkable != nil {
		module.Forkable = *patch.Forkable
	}
}

// ArchiveModule implements Service.ArchiveModule.
func (s *contentService) ArchiveModule(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (*domain.Module, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !level.IsOwner() {
		return nil, ErrUnauthorized
	}

	module.Archive()
	if err := s.modules.Update(ctx, module); err != nil {
		return nil, fmt.Errorf("failed to archive module: %w", err)
	}

	log.Info("module archived", slog.String("module_id", moduleID.String()))
	return module, nil
}

// AddItem implements Service.AddItem.
func (s *contentService) AddItem(
	ctx context.Context,
	userID, moduleID uuid.UUID,
	content json.RawMessage,
) (*domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	module, err := s.loadModule(ctx, moduleID)
	if err != nil {
		return nil, err
	}

	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if !level.CanEdit() {
		return nil, ErrUnauthorized
	}
	if err := ensureNotArchived(module, level); err != nil {
		return nil, err
	}

	if err := domain.ValidateContent(module.Type, content); err != nil {
		return nil, err
	}

	var item *domain.Item
	err = s.runTx(ctx, func(ctx context.Context, tx *sql.Tx) error {
		modules := s.modules.WithTx(tx)

		position, err := modules.NextPosition(ctx, moduleID)
		if err != nil {
			return fmt.Errorf("failed to determine next position: %w", err)
		}

		item, err = domain.NewItem(moduleID, position, content)
		if err != nil {
			return err
		}

		return modules.CreateItems(ctx, []*domain.Item{item})
	})
	if err != nil {
		log.Error("failed to add item",
			slog.String("error", err.Error()),
			slog.String("module_id", moduleID.String()))
		return nil, err
	}

	log.Debug("item added",
		slog.String("module_id", moduleID.String()),
		slog.String("item_id", item.ID.String()),
		slog.Int("position", item.Position))

	return item, nil
}

// AddToLibrary implements Service.AddToLibrary.
func (s *contentService) AddToLibrary(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (*domain.LibraryEntry, error) {
	if _, err := s.loadModule(ctx, moduleID); err != nil {
		return nil, err
	}

	if _, err := s.library.Get(ctx, userID, moduleID); err == nil {
		// Never overwrite an existing entry; only refresh the interaction time.
		if err := s.library.Touch(ctx, userID, moduleID); err != nil {
			return nil, fmt.Errorf("failed to touch library entry: %w", err)
		}
		return s.library.Get(ctx, userID, moduleID)
	} else if !store.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to read library entry: %w", err)
	}

	role := domain.LibraryRoleSaved
	level, err := s.access.Level(ctx, userID, moduleID)
	if err != nil {
		return nil, err
	}
	if level.IsOwner() {
		role = domain.LibraryRoleOwner
	}

	entry, err := domain.NewLibraryEntry(userID, moduleID, role)
	if err != nil {
		return nil, err
	}
	if err := s.library.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to create library entry: %w", err)
	}

	return entry, nil
}

// ensureNotArchived hides archived modules from everyone but their owner.
// Every path that reads or mutates module content applies it, so to a
// non-owner an archived module does not exist: it cannot be read, forked,
// edited, or studied.
func ensureNotArchived(module *domain.Module, level domain.AccessLevel) error {
	if module.IsArchived() && !level.IsOwner() {
		return ErrModuleNotFound
	}
	return nil
}

// loadModule fetches a module, translating store sentinel errors into the
// service error space.
func (s *contentService) loadModule(ctx context.Context, moduleID uuid.UUID) (*domain.Module, error) {
	module, err := s.modules.GetByID(ctx, moduleID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrModuleNotFound
		}
		return nil, fmt.Errorf("failed to load module: %w", err)
	}
	return module, nil
}

// loadItem fetches an item and verifies it belongs to the given module.
func (s *contentService) loadItem(ctx context.Context, moduleID, itemID uuid.UUID) (*domain.Item, error) {
	item, err := s.modules.GetItem(ctx, itemID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to load item: %w", err)
	}
	if item.ModuleID != moduleID {
		return nil, ErrItemNotFound
	}
	return item, nil
}
