package services

import "errors"

// Shared error vocabulary for the service layer and the HTTP mapping.
var (
	// Validation
	ErrValidationFailed = errors.New("validation failed")

	// Not found
	ErrSeasonNotFound      = errors.New("season not found")
	ErrParticipantNotFound = errors.New("participant not found in season")

	// Conflicts
	ErrSeasonCodeConflict      = errors.New("season already exists")
	ErrParticipantNameConflict = errors.New("already a participant")

	// Authorization
	ErrInvalidSeasonPassword = errors.New("invalid season password")
	ErrAdminRequired         = errors.New("admin access required")
	ErrNotParticipant        = errors.New("player is not a season participant")
	ErrSessionRequired       = errors.New("a valid session is required")

	// Concurrency: surfaced when optimistic retries are exhausted.
	ErrConcurrentUpdate = errors.New("season is being modified concurrently, try again")
)
