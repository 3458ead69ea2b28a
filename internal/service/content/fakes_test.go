package content

import (
	"context"
	"database/sql"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
	"github.com/phrazzld/tome-api/internal/store"
)

// In-memory store fakes. WithTx returns the fake itself and the test
// transaction runner calls the function directly, so transactional code
// paths execute against the same maps as non-transactional ones.

func directTxRunner(ctx context.Context, fn store.TxFn) error {
	return fn(ctx, nil)
}

type fakeModuleStore struct {
	modules map[uuid.UUID]*domain.Module
	items   map[uuid.UUID]*domain.Item

	// Write counters for asserting that rejected or skipped operations
	// leave zero writes behind.
	moduleWrites int
	itemWrites   int
}

func newFakeModuleStore() *fakeModuleStore {
	return &fakeModuleStore{
		modules: make(map[uuid.UUID]*domain.Module),
		items:   make(map[uuid.UUID]*domain.Item),
	}
}

func (f *fakeModuleStore) Create(_ context.Context, module *domain.Module) error {
	f.moduleWrites++
	f.modules[module.ID] = module
	return nil
}

func (f *fakeModuleStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Module, error) {
	module, ok := f.modules[id]
	if !ok {
		return nil, store.ErrModuleNotFound
	}
	return module, nil
}

func (f *fakeModuleStore) Update(_ context.Context, module *domain.Module) error {
	if _, ok := f.modules[module.ID]; !ok {
		return store.ErrModuleNotFound
	}
	f.moduleWrites++
	f.modules[module.ID] = module
	return nil
}

func (f *fakeModuleStore) CreateItems(_ context.Context, items []*domain.Item) error {
	for _, item := range items {
		f.itemWrites++
		f.items[item.ID] = item
	}
	return nil
}

func (f *fakeModuleStore) ListItems(_ context.Context, moduleID uuid.UUID) ([]*domain.Item, error) {
	var items []*domain.Item
	for _, item := range f.items {
		if item.ModuleID == moduleID {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Position < items[j].Position })
	return items, nil
}

func (f *fakeModuleStore) GetItem(_ context.Context, id uuid.UUID) (*domain.Item, error) {
	item, ok := f.items[id]
	if !ok {
		return nil, store.ErrItemNotFound
	}
	return item, nil
}

func (f *fakeModuleStore) UpdateItem(_ context.Context, item *domain.Item) error {
	if _, ok := f.items[item.ID]; !ok {
		return store.ErrItemNotFound
	}
	f.itemWrites++
	f.items[item.ID] = item
	return nil
}

func (f *fakeModuleStore) DeleteItem(_ context.Context, id uuid.UUID) error {
	if _, ok := f.items[id]; !ok {
		return store.ErrItemNotFound
	}
	f.itemWrites++
	delete(f.items, id)
	return nil
}

func (f *fakeModuleStore) NextPosition(_ context.Context, moduleID uuid.UUID) (int, error) {
	next := 0
	for _, item := range f.items {
		if item.ModuleID == moduleID && item.Position >= next {
			next = item.Position + 1
		}
	}
	return next, nil
}

func (f *fakeModuleStore) FindItemBySource(_ context.Context, moduleID, sourceItemID uuid.UUID) (*domain.Item, error) {
	for _, item := range f.items {
		if item.ModuleID == moduleID && item.SourceItemID != nil && *item.SourceItemID == sourceItemID {
			return item, nil
		}
	}
	return nil, store.ErrItemNotFound
}

func (f *fakeModuleStore) WithTx(_ *sql.Tx) store.ModuleStore { return f }

type grantKey struct {
	userID   uuid.UUID
	moduleID uuid.UUID
}

type fakeGrantStore struct {
	grants map[grantKey]*domain.AccessGrant
}

func newFakeGrantStore() *fakeGrantStore {
	return &fakeGrantStore{grants: make(map[grantKey]*domain.AccessGrant)}
}

func (f *fakeGrantStore) Create(_ context.Context, grant *domain.AccessGrant) error {
	key := grantKey{grant.UserID, grant.ModuleID}
	if _, ok := f.grants[key]; ok {
		return store.ErrDuplicate
	}
	f.grants[key] = grant
	return nil
}

func (f *fakeGrantStore) GetLevel(_ context.Context, userID, moduleID uuid.UUID) (domain.AccessLevel, error) {
	grant, ok := f.grants[grantKey{userID, moduleID}]
	if !ok {
		return domain.AccessNone, nil
	}
	return grant.Level, nil
}

func (f *fakeGrantStore) WithTx(_ *sql.Tx) store.GrantStore { return f }

type fakeLibraryStore struct {
	entries map[grantKey]*domain.LibraryEntry

	// Backfill sources: the reconciliation passes scan modules and grants.
	modules *fakeModuleStore
	grants  *fakeGrantStore
}

func newFakeLibraryStore(modules *fakeModuleStore, grants *fakeGrantStore) *fakeLibraryStore {
	return &fakeLibraryStore{
		entries: make(map[grantKey]*domain.LibraryEntry),
		modules: modules,
		grants:  grants,
	}
}

func (f *fakeLibraryStore) Create(_ context.Context, entry *domain.LibraryEntry) error {
	key := grantKey{entry.UserID, entry.ModuleID}
	if _, ok := f.entries[key]; ok {
		return store.ErrDuplicate
	}
	f.entries[key] = entry
	return nil
}

func (f *fakeLibraryStore) Get(_ context.Context, userID, moduleID uuid.UUID) (*domain.LibraryEntry, error) {
	entry, ok := f.entries[grantKey{userID, moduleID}]
	if !ok {
		return nil, store.ErrNotFound
	}
	return entry, nil
}

func (f *fakeLibraryStore) Touch(_ context.Context, userID, moduleID uuid.UUID) error {
	entry, ok := f.entries[grantKey{userID, moduleID}]
	if !ok {
		return store.ErrNotFound
	}
	entry.LastInteractionAt = time.Now().UTC()
	return nil
}

func (f *fakeLibraryStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.LibraryEntry, error) {
	var entries []*domain.LibraryEntry
	for _, entry := range f.entries {
		if entry.UserID == userID {
			entries = append(entries, entry)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].LastInteractionAt.After(entries[j].LastInteractionAt)
	})
	return entries, nil
}

func (f *fakeLibraryStore) BackfillOwned(_ context.Context, userID uuid.UUID) (int64, error) {
	var inserted int64
	for _, module := range f.modules.modules {
		if module.OwnerID != userID {
			continue
		}
		key := grantKey{userID, module.ID}
		if _, ok := f.entries[key]; ok {
			continue
		}
		f.entries[key] = &domain.LibraryEntry{
			UserID:            userID,
			ModuleID:          module.ID,
			Role:              domain.LibraryRoleOwner,
			LastInteractionAt: module.CreatedAt,
			CreatedAt:         time.Now().UTC(),
		}
		inserted++
	}
	return inserted, nil
}

func (f *fakeLibraryStore) RepairFromGrants(_ context.Context) (int64, error) {
	var inserted int64
	for key, grant := range f.grants.grants {
		if _, ok := f.entries[key]; ok {
			continue
		}
		f.entries[key] = &domain.LibraryEntry{
			UserID:            grant.UserID,
			ModuleID:          grant.ModuleID,
			Role:              domain.LibraryRoleOwner,
			LastInteractionAt: grant.CreatedAt,
			CreatedAt:         time.Now().UTC(),
		}
		inserted++
	}
	return inserted, nil
}

func (f *fakeLibraryStore) WithTx(_ *sql.Tx) store.LibraryStore { return f }

type progressKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

type fakeProgressStore struct {
	records map[progressKey]*domain.ProgressRecord
}

func newFakeProgressStore() *fakeProgressStore {
	return &fakeProgressStore{records: make(map[progressKey]*domain.ProgressRecord)}
}

func (f *fakeProgressStore) Create(_ context.Context, record *domain.ProgressRecord) error {
	key := progressKey{record.UserID, record.ItemID}
	if _, ok := f.records[key]; ok {
		return store.ErrDuplicate
	}
	f.records[key] = record
	return nil
}

func (f *fakeProgressStore) CreateMultiple(ctx context.Context, records []*domain.ProgressRecord) error {
	for _, record := range records {
		if err := f.Create(ctx, record); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProgressStore) Get(_ context.Context, userID, itemID uuid.UUID) (*domain.ProgressRecord, error) {
	record, ok := f.records[progressKey{userID, itemID}]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return record, nil
}

func (f *fakeProgressStore) GetForItems(
	_ context.Context,
	userID uuid.UUID,
	itemIDs []uuid.UUID,
) (map[uuid.UUID]*domain.ProgressRecord, error) {
	result := make(map[uuid.UUID]*domain.ProgressRecord)
	for _, itemID := range itemIDs {
		if record, ok := f.records[progressKey{userID, itemID}]; ok {
			result[itemID] = record
		}
	}
	return result, nil
}

func (f *fakeProgressStore) Update(_ context.Context, record *domain.ProgressRecord) error {
	key := progressKey{record.UserID, record.ItemID}
	if _, ok := f.records[key]; !ok {
		return store.ErrProgressNotFound
	}
	f.records[key] = record
	return nil
}

func (f *fakeProgressStore) WithTx(_ *sql.Tx) store.ProgressStore { return f }

// fakeGenerator returns canned payloads or a canned error.
type fakeGenerator struct {
	payloads []json.RawMessage
	err      error
}

func (f *fakeGenerator) GenerateItems(
	_ context.Context,
	_ string,
	_ domain.ModuleType,
) ([]json.RawMessage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.payloads, nil
}

// fixture bundles a service wired to in-memory fakes.
type fixture struct {
	svc      Service
	modules  *fakeModuleStore
	grants   *fakeGrantStore
	library  *fakeLibraryStore
	progress *fakeProgressStore
}

func newFixture() *fixture {
	modules := newFakeModuleStore()
	grants := newFakeGrantStore()
	library := newFakeLibraryStore(modules, grants)
	progress := newFakeProgressStore()

	return &fixture{
		svc:      NewService(directTxRunner, modules, grants, library, progress, nil, nil),
		modules:  modules,
		grants:   grants,
		library:  library,
		progress: progress,
	}
}

// withGenerator rebuilds the service with an item generator attached.
func (f *fixture) withGenerator(g *fakeGenerator) {
	f.svc = NewService(directTxRunner, f.modules, f.grants, f.library, f.progress, g, nil)
}
