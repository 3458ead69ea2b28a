// Package auth provides JWT token issuance/validation and password hashing.
// It is the collaborator that supplies an authenticated user ID to the
// content core; the core itself never inspects credentials.
package auth

import "errors"

// Common authentication service errors
var (
	// ErrInvalidToken indicates the token format is invalid or the
	// signature does not match.
	ErrInvalidToken = errors.New("invalid authentication token")

	// ErrExpiredToken indicates the token has expired.
	ErrExpiredToken = errors.New("authentication token has expired")

	// ErrMissingToken indicates a token was expected but not provided.
	ErrMissingToken = errors.New("authentication token is missing")

	// ErrInvalidCredentials indicates an email/password pair that does not
	// match a registered user. Deliberately indistinguishable between
	// unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
