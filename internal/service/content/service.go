// Package content implements the copy-on-write content engine: module and
// item persistence orchestration, the permission-gated mutation gateway,
// the fork engine, and the library reconciler.
package content

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/phrazzld/tome-api/internal/domain"
)

// Common content service errors
var (
	// ErrModuleNotFound indicates that the module does not exist.
	ErrModuleNotFound = errors.New("module not found")

	// ErrItemNotFound indicates that the item does not exist in the module.
	ErrItemNotFound = errors.New("item not found")

	// ErrUnauthorized indicates the user lacks the access level the
	// operation requires. Rejected with no writes.
	ErrUnauthorized = errors.New("insufficient access for operation")

	// ErrNotForkable indicates a fork (explicit or implicit) was attempted
	// on a module whose forkable flag is false. Rejected with no writes.
	ErrNotForkable = errors.New("module is not forkable")

	// ErrGenerationDisabled indicates that AI item generation was requested
	// but no generator is configured.
	ErrGenerationDisabled = errors.New("item generation is not configured")
)

// ModuleSpec describes a module to create, with its items in order.
// Item payloads are validated against Type before anything is written.
type ModuleSpec struct {
	Title       string
	Description string
	Type        domain.ModuleType
	Forkable    bool
	Items       []json.RawMessage
}

// ItemPatch is one entry of an incoming item list for module update
// reconciliation. ID is uuid.Nil for items that do not exist yet.
type ItemPatch struct {
	ID      uuid.UUID
	Content json.RawMessage
}

// ModulePatch describes a module update. Nil field pointers leave the
// corresponding module field unchanged; a nil Items slice leaves the item
// set untouched, while a non-nil slice (including an empty one) is
// reconciled against the existing items.
type ModulePatch struct {
	Title       *string
	Description *string
	Forkable    *bool
	Items       []ItemPatch
}

// ModuleWithItems bundles a module with its items in position order.
type ModuleWithItems struct {
	Module *domain.Module
	Items  []*domain.Item
}

// MutationOutcome says what the gateway actually did with an item mutation.
type MutationOutcome string

// Possible mutation outcomes.
const (
	// OutcomeApplied: the change was applied in place to the module the
	// caller addressed.
	OutcomeApplied MutationOutcome = "applied"

	// OutcomeSkipped: the proposed content was identical to the current
	// content; nothing was written.
	OutcomeSkipped MutationOutcome = "skipped"

	// OutcomeForked: the module was forked and the change applied to the
	// caller's new copy. The module the caller was viewing is now stale
	// for them; ForkedModuleID points at the copy.
	OutcomeForked MutationOutcome = "forked"
)

// UpdateItemResult is the explicit result of an item edit: either a plain
// updated (or unchanged) item, or a fork-occurred result carrying the new
// module ID. ForkedModuleID is set only when Outcome is OutcomeForked.
type UpdateItemResult struct {
	Outcome        MutationOutcome
	Item           *domain.Item
	ForkedModuleID uuid.UUID
}

// DeleteItemResult is the explicit result of an item delete. There is no
// skip outcome for deletes: a non-owner delete on a forkable module always
// forks. ForkedModuleID is set only when Outcome is OutcomeForked.
type DeleteItemResult struct {
	Outcome        MutationOutcome
	ForkedModuleID uuid.UUID
}

// Service is the mutation and query surface the HTTP layer and other
// collaborators use. All multi-row operations are atomic: any failure
// leaves zero partial state.
type Service interface {
	// CreateModule creates a module with its items, an OWNER access grant,
	// and an OWNER library entry in a single transaction.
	CreateModule(ctx context.Context, ownerID uuid.UUID, spec ModuleSpec) (*ModuleWithItems, error)

	// GetModule loads a module with its items. Requires viewer access or a
	// forkable module; archived modules are hidden from non-owners.
	GetModule(ctx context.Context, userID, moduleID uuid.UUID) (*ModuleWithItems, error)

	// UpdateModule patches module fields and reconciles the incoming item
	// list against the existing one in a single transaction. Requires OWNER.
	UpdateModule(ctx context.Context, userID, moduleID uuid.UUID, patch ModulePatch) (*ModuleWithItems, error)

	// ArchiveModule soft-deletes a module. Requires OWNER.
	ArchiveModule(ctx context.Context, userID, moduleID uuid.UUID) (*domain.Module, error)

	// AddItem appends one item at the next free position. Requires OWNER
	// or EDITOR.
	AddItem(ctx context.Context, userID, moduleID uuid.UUID, content json.RawMessage) (*domain.Item, error)

	// UpdateItem runs the edit decision state machine: owners edit in
	// place, non-owners on forkable modules fork-then-edit (or skip when
	// the content is unchanged), everything else is rejected.
	UpdateItem(ctx context.Context, userID, moduleID, itemID uuid.UUID, content json.RawMessage) (*UpdateItemResult, error)

	// DeleteItem runs the delete decision state machine: owners delete in
	// place, non-owners on forkable modules fork-then-delete, everything
	// else is rejected.
	DeleteItem(ctx context.Context, userID, moduleID, itemID uuid.UUID) (*DeleteItemResult, error)

	// ForkModule copies a module and its items into a new module owned by
	// the user, migrating the user's still-valid progress, atomically.
	ForkModule(ctx context.Context, userID, sourceModuleID uuid.UUID) (*ModuleWithItems, error)

	// AddToLibrary saves a module into the user's library (role SAVED, or
	// OWNER when the user owns it) or refreshes the interaction time of an
	// existing entry.
	AddToLibrary(ctx context.Context, userID, moduleID uuid.UUID) (*domain.LibraryEntry, error)

	// ListLibrary returns the user's library after lazily backfilling
	// entries for owned modules that are missing one.
	ListLibrary(ctx context.Context, userID uuid.UUID) ([]*domain.LibraryEntry, error)

	// RepairLibraries runs the administrative backfill over all access
	// grants and returns the number of entries inserted. Idempotent.
	RepairLibraries(ctx context.Context) (int64, error)

	// RecordAttempt folds a study attempt into the user's progress record
	// for an item, stamping the item's current content hash. A record
	// stamped with a stale hash is reset before the attempt is recorded.
	RecordAttempt(ctx context.Context, userID, moduleID, itemID uuid.UUID, correct bool) (*domain.ProgressRecord, error)

	// GenerateItems drafts items from source text with the configured AI
	// generator and appends them to the module in one transaction. Requires
	// OWNER or EDITOR. Returns ErrGenerationDisabled when no generator is
	// configured.
	GenerateItems(ctx context.Context, userID, moduleID uuid.UUID, sourceText string) ([]*domain.Item, error)
}
