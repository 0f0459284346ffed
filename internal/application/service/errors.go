package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a requested entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned for illegal lifecycle transitions and for
	// edits of claims that already left the SUBMITTED state
	ErrInvalidState = errors.New("invalid state")

	// ErrPeriodClosed is returned when submitting against a closed period
	ErrPeriodClosed = errors.New("period is closed")

	// ErrTooEarly is returned when submitting before the submission window opens
	ErrTooEarly = errors.New("submission window not yet open")

	// ErrPeriodExhausted is returned when the submission window has closed and
	// no later open period exists to forward the claim to
	ErrPeriodExhausted = errors.New("no open period accepts submissions")

	// ErrCapLocked is returned when the employee already produced basket
	// overflow in the period and may not submit again until the next one
	ErrCapLocked = errors.New("submissions locked after basket overflow")

	// ErrValidation is returned for invalid input, such as an empty
	// rejection reason
	ErrValidation = errors.New("validation failed")
)

// PendingClaimsError blocks a settlement run while unresolved claims remain
// in the period.
type PendingClaimsError struct {
	Count int
}

func (e *PendingClaimsError) Error() string {
	return fmt.Sprintf("period has %d unresolved claims", e.Count)
}
