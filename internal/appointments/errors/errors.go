package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrSlotLocked means another booking holds the advisory lock for the
	// same (professional, date, time) tuple right now.
	ErrSlotLocked = errors.New("slot is locked by a concurrent booking")
)
