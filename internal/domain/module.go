package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ModuleType identifies the kind of study items a module holds. All items in
// a module share the same type; the type determines the content payload shape.
type ModuleType string

// Supported module types.
const (
	ModuleTypeFlashcard      ModuleType = "FLASHCARD"
	ModuleTypeMultipleChoice ModuleType = "MULTIPLE_CHOICE"
	ModuleTypeGapFill        ModuleType = "GAP_FILL"
	ModuleTypeTrueFalse      ModuleType = "TRUE_FALSE"
)

// IsValid reports whether the module type is one of the supported kinds.
func (t ModuleType) IsValid() bool {
	switch t {
	case ModuleTypeFlashcard, ModuleTypeMultipleChoice, ModuleTypeGapFill, ModuleTypeTrueFalse:
		return true
	default:
		return false
	}
}

// ModuleStatus represents the lifecycle state of a module.
type ModuleStatus string

// Possible module statuses.
const (
	ModuleStatusDraft    ModuleStatus = "draft"
	ModuleStatusActive   ModuleStatus = "active"
	ModuleStatusArchived ModuleStatus = "archived"
)

// IsValid reports whether the status is a known lifecycle state.
func (s ModuleStatus) IsValid() bool {
	switch s {
	case ModuleStatusDraft, ModuleStatusActive, ModuleStatusArchived:
		return true
	default:
		return false
	}
}

// Module-specific validation errors
var (
	ErrModuleIDEmpty      = errors.New("module ID cannot be empty")
	ErrModuleOwnerEmpty   = errors.New("module owner ID cannot be empty")
	ErrModuleCreatorEmpty = errors.New("module creator ID cannot be empty")
	ErrModuleTitleEmpty   = errors.New("module title cannot be empty")
)

// Module is a collection of ordered study items with a single owner.
//
// Creator and Owner may differ: when a module is forked the new module is
// owned by the forking user while Creator records who authored the content
// lineage. SourceModuleID points at the module this one was forked from and
// is never mutated after creation; it is the only provenance record.
type Module struct {
	ID             uuid.UUID    `json:"id"`
	OwnerID        uuid.UUID    `json:"owner_id"`
	CreatorID      uuid.UUID    `json:"creator_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description,omitempty"`
	Type           ModuleType   `json:"type"`
	Forkable       bool         `json:"forkable"`
	Status         ModuleStatus `json:"status"`
	SourceModuleID *uuid.UUID   `json:"source_module_id,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
	ArchivedAt     *time.Time   `json:"archived_at,omitempty"`
}

// NewModule creates a new Module owned and created by the given user.
// It generates a new UUID and stamps creation timestamps.
// Returns an error if validation fails.
func NewModule(ownerID uuid.UUID, title, description string, moduleType ModuleType, forkable bool) (*Module, error) {
	now := time.Now().UTC()
	module := &Module{
		ID:          uuid.New(),
		OwnerID:     ownerID,
		CreatorID:   ownerID,
		Title:       title,
		Description: description,
		Type:        moduleType,
		Forkable:    forkable,
		Status:      ModuleStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := module.Validate(); err != nil {
		return nil, err
	}

	return module, nil
}

// NewForkedModule creates the copy-side Module of a fork: owned by the
// forking user, carrying the source's descriptive fields, with provenance
// pointing at the source. The source's creator is preserved so authorship
// survives any number of fork generations.
func NewForkedModule(ownerID uuid.UUID, source *Module) (*Module, error) {
	now := time.Now().UTC()
	module := &Module{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		CreatorID:      source.CreatorID,
		Title:          source.Title,
		Description:    source.Description,
		Type:           source.Type,
		Forkable:       source.Forkable,
		Status:         ModuleStatusActive,
		SourceModuleID: &source.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := module.Validate(); err != nil {
		return nil, err
	}

	return module, nil
}

// Validate checks if the Module has valid data.
// Returns an error if any field fails validation.
func (m *Module) Validate() error {
	if m.ID == uuid.Nil {
		return ErrModuleIDEmpty
	}

	if m.OwnerID == uuid.Nil {
		return ErrModuleOwnerEmpty
	}

	if m.CreatorID == uuid.Nil {
		return ErrModuleCreatorEmpty
	}

	if m.Title == "" {
		return ErrModuleTitleEmpty
	}

	if !m.Type.IsValid() {
		return ErrInvalidModuleType
	}

	if !m.Status.IsValid() {
		return ErrInvalidModuleStatus
	}

	return nil
}

// IsArchived reports whether the module has been soft-deleted.
func (m *Module) IsArchived() bool {
	return m.Status == ModuleStatusArchived
}

// Archive marks the module as archived and stamps the archive time.
// Rows are never deleted; archiving is the terminal lifecycle state.
func (m *Module) Archive() {
	now := time.Now().UTC()
	m.Status = ModuleStatusArchived
	m.ArchivedAt = &now
	m.UpdatedAt = now
}
