package entities

import "errors"

// Error kinds surfaced by every operation. Callers classify with errors.Is;
// the wrapped message names the specific scope/id/field/value that failed.
var (
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrPaused           = errors.New("paused for maintenance")
	ErrValidation       = errors.New("validation failed")
	ErrAlreadyPaid      = errors.New("already paid")
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrOutOfRange       = errors.New("out of range")
	ErrPeriodNotClosed  = errors.New("period not closed")
	ErrNotApproved      = errors.New("not approved")
)
