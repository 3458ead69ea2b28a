package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// LibraryRole distinguishes modules a user owns from modules they saved
// from elsewhere.
type LibraryRole string

// Possible library roles.
const (
	LibraryRoleOwner LibraryRole = "OWNER"
	LibraryRoleSaved LibraryRole = "SAVED"
)

// IsValid reports whether the role is a known library role.
func (r LibraryRole) IsValid() bool {
	return r == LibraryRoleOwner || r == LibraryRoleSaved
}

// LibraryEntry-specific validation errors
var (
	ErrLibraryUserIDEmpty   = errors.New("library entry user ID cannot be empty")
	ErrLibraryModuleIDEmpty = errors.New("library entry module ID cannot be empty")
)

// LibraryEntry is one row of a user's library index: a module the user has
// access to, with the role it appears under and the time of last interaction.
//
// The library is an index, not the source of truth for permissions: access
// grants decide what a user may do, the library only decides what their
// listing shows. Every module a user owns must eventually appear here; the
// reconciler backfills missing rows rather than any write-time constraint.
type LibraryEntry struct {
	UserID            uuid.UUID   `json:"user_id"`
	ModuleID          uuid.UUID   `json:"module_id"`
	Role              LibraryRole `json:"role"`
	LastInteractionAt time.Time   `json:"last_interaction_at"`
	CreatedAt         time.Time   `json:"created_at"`
}

// NewLibraryEntry creates a library entry for the given user and module.
// Returns an error if validation fails.
func NewLibraryEntry(userID, moduleID uuid.UUID, role LibraryRole) (*LibraryEntry, error) {
	now := time.Now().UTC()
	entry := &LibraryEntry{
		UserID:            userID,
		ModuleID:          moduleID,
		Role:              role,
		LastInteractionAt: now,
		CreatedAt:         now,
	}

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Validate checks if the LibraryEntry has valid data.
func (e *LibraryEntry) Validate() error {
	if e.UserID == uuid.Nil {
		return ErrLibraryUserIDEmpty
	}

	if e.ModuleID == uuid.Nil {
		return ErrLibraryModuleIDEmpty
	}

	if !e.Role.IsValid() {
		return fmt.Errorf("%w: %q", ErrInvalidLibraryRole, e.Role)
	}

	return nil
}

// AccessGrant-specific validation errors
var (
	ErrGrantUserIDEmpty   = errors.New("access grant user ID cannot be empty")
	ErrGrantModuleIDEmpty = errors.New("access grant module ID cannot be empty")
	ErrGrantLevelInvalid  = errors.New("access grant level must be viewer, editor, or owner")
)

// AccessGrant is the authoritative permission record for a (user, module)
// pair. Mutation rights are always resolved from grants, independent of the
// user's library entries.
type AccessGrant struct {
	UserID    uuid.UUID   `json:"user_id"`
	ModuleID  uuid.UUID   `json:"module_id"`
	Level     AccessLevel `json:"level"`
	CreatedAt time.Time   `json:"created_at"`
}

// NewAccessGrant creates a grant for the given user and module at the given
// level. AccessNone is not a storable level: absence of a row means no access.
func NewAccessGrant(userID, moduleID uuid.UUID, level AccessLevel) (*AccessGrant, error) {
	grant := &AccessGrant{
		UserID:    userID,
		ModuleID:  moduleID,
		Level:     level,
		CreatedAt: time.Now().UTC(),
	}

	if err := grant.Validate(); err != nil {
		return nil, err
	}

	return grant, nil
}

// Validate checks if the AccessGrant has valid data.
func (g *AccessGrant) Validate() error {
	if g.UserID == uuid.Nil {
		return ErrGrantUserIDEmpty
	}

	if g.ModuleID == uuid.Nil {
		return ErrGrantModuleIDEmpty
	}

	if g.Level < AccessViewer || g.Level > AccessOwner {
		return ErrGrantLevelInvalid
	}

	return nil
}
