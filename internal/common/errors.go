// Package common defines shared constants and sentinel errors used across
// the journal core. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Validation errors (reported synchronously, block the commit).
	ErrValidation = errors.New("validation error")

	// Aggregate-builder errors.
	ErrCommitInFlight = errors.New("commit already in flight")

	// Photo attachment errors.
	ErrUnreadable      = errors.New("attachment source unreadable")
	ErrInvalidPosition = errors.New("invalid photo position")

	// Schema editor errors.
	ErrPresetField = errors.New("preset field cannot be deleted")

	// Auth errors, distinguishable so the caller can direct the user to
	// the offending form field.
	ErrUnauthorized      = errors.New("unauthorized")
	ErrWeakCredential    = errors.New("credential too weak")
	ErrInvalidIdentifier = errors.New("invalid identifier format")
	ErrIdentifierInUse   = errors.New("identifier already in use")
	ErrInvalidToken      = errors.New("invalid token")

	// Network/backend errors (retried by the scheduling layer).
	ErrUnavailable = errors.New("backend unavailable")
)
