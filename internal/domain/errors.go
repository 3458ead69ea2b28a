package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidEmail is returned when an email address is malformed.
	ErrInvalidEmail = errors.New("invalid email format")

	// ErrInvalidModuleType is returned when a module type is not one of
	// the supported study module kinds.
	ErrInvalidModuleType = errors.New("invalid module type")

	// ErrInvalidModuleStatus is returned when a module status is not valid.
	ErrInvalidModuleStatus = errors.New("invalid module status")

	// ErrInvalidContent is returned when an item's content payload does not
	// match the shape required by its module type.
	ErrInvalidContent = errors.New("invalid item content")

	// ErrInvalidAccessLevel is returned when an access level string does not
	// map to a known level.
	ErrInvalidAccessLevel = errors.New("invalid access level")

	// ErrInvalidLibraryRole is returned when a library role is not valid.
	ErrInvalidLibraryRole = errors.New("invalid library role")

	// ErrUnauthorized is returned when an operation is not permitted.
	ErrUnauthorized = errors.New("unauthorized operation")
)
