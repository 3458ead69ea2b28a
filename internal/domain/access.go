package domain

import "fmt"

// AccessLevel represents a user's permission level on a module. Levels are
// ordered: None < Viewer < Editor < Owner. Access is always resolved from
// explicit grants, never inferred from the module's owner column, because
// shared content can grant editor access without transferring ownership.
type AccessLevel int

// Possible access levels, in ascending order of privilege.
const (
	AccessNone AccessLevel = iota
	AccessViewer
	AccessEditor
	AccessOwner
)

// String returns the storage representation of the access level.
func (l AccessLevel) String() string {
	switch l {
	case AccessNone:
		return "NONE"
	case AccessViewer:
		return "VIEWER"
	case AccessEditor:
		return "EDITOR"
	case AccessOwner:
		return "OWNER"
	default:
		return fmt.Sprintf("AccessLevel(%d)", int(l))
	}
}

// ParseAccessLevel converts a storage representation back to an AccessLevel.
// Returns ErrInvalidAccessLevel for unknown values.
func ParseAccessLevel(s string) (AccessLevel, error) {
	switch s {
	case "NONE":
		return AccessNone, nil
	case "VIEWER":
		return AccessViewer, nil
	case "EDITOR":
		return AccessEditor, nil
	case "OWNER":
		return AccessOwner, nil
	default:
		return AccessNone, fmt.Errorf("%w: %q", ErrInvalidAccessLevel, s)
	}
}

// AtLeast reports whether the level grants at least the given level.
func (l AccessLevel) AtLeast(min AccessLevel) bool {
	return l >= min
}

// CanView reports whether the level permits reading module content.
func (l AccessLevel) CanView() bool {
	return l >= AccessViewer
}

// CanEdit reports whether the level permits mutating module content in place.
func (l AccessLevel) CanEdit() bool {
	return l >= AccessEditor
}

// IsOwner reports whether the level is full ownership.
func (l AccessLevel) IsOwner() bool {
	return l == AccessOwner
}
