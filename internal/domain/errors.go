package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a quiz session has not been started or has ended.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrUnknownRegion is returned when a region key is not in the catalog.
	ErrUnknownRegion = errors.New("unknown region")
	// ErrSessionNotReady indicates guesses were submitted before the records loaded.
	ErrSessionNotReady = errors.New("quiz session not ready")
	// ErrSlotOutOfRange indicates a guess for a slot the session does not have.
	ErrSlotOutOfRange = errors.New("slot out of range")
	// ErrSlotLocked indicates a guess for a slot that was already answered.
	ErrSlotLocked = errors.New("slot already guessed")
	// ErrStaleLoad is returned to a load that was superseded by a newer region selection.
	ErrStaleLoad = errors.New("region load superseded")
	// ErrSessionClosed indicates the session ended while an operation was running.
	ErrSessionClosed = errors.New("quiz session closed")
	// ErrRecordNotFound indicates the catalog has no record for an id.
	ErrRecordNotFound = errors.New("record not found")
	// ErrInvalidRegions indicates a region table failed validation.
	ErrInvalidRegions = errors.New("invalid region table")
)
