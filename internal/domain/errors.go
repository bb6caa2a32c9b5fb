package domain

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the booking and settlement core. Handlers map these
// to HTTP status codes; everything else surfaces as an internal error.
var (
	ErrInvalidDateRange       = errors.New("invalid date range")
	ErrDateRangeConflict      = errors.New("date range conflict")
	ErrCapacityExceeded       = errors.New("capacity exceeded")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrHostBlocked            = errors.New("host account is blocked")
	ErrInvalidAmount          = errors.New("invalid amount")
	ErrNotFound               = errors.New("not found")
	ErrConflict               = errors.New("conflict")
	ErrValidation             = errors.New("validation failed")
)

// DomainError carries a sentinel kind plus a human-readable message.
type DomainError struct {
	Err     error
	Message string
}

func (e *DomainError) Error() string { return e.Message }

func (e *DomainError) Unwrap() error { return e.Err }

// NewInvalidDateRangeError reports a stay whose checkout does not follow its checkin.
func NewInvalidDateRangeError(msg string) *DomainError {
	return &DomainError{Err: ErrInvalidDateRange, Message: msg}
}

// NewDateRangeConflictError reports an interval already taken by a reservation or lock.
func NewDateRangeConflictError(msg string) *DomainError {
	return &DomainError{Err: ErrDateRangeConflict, Message: msg}
}

// NewCapacityExceededError reports a guest composition over the room or property limits.
func NewCapacityExceededError(msg string) *DomainError {
	return &DomainError{Err: ErrCapacityExceeded, Message: msg}
}

// NewUnauthorizedError reports an actor not permitted to perform the transition.
func NewUnauthorizedError(msg string) *DomainError {
	return &DomainError{Err: ErrUnauthorized, Message: msg}
}

// NewInvalidStateError reports an illegal lifecycle transition.
func NewInvalidStateError(from, to string) *DomainError {
	return &DomainError{
		Err:     ErrInvalidStateTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// NewHostBlockedError reports an operation against a blocked host account.
func NewHostBlockedError(msg string) *DomainError {
	return &DomainError{Err: ErrHostBlocked, Message: msg}
}

// NewInvalidAmountError reports a non-positive payment or fine amount.
func NewInvalidAmountError(msg string) *DomainError {
	return &DomainError{Err: ErrInvalidAmount, Message: msg}
}

// NewNotFoundError reports a missing entity.
func NewNotFoundError(entity, id string) *DomainError {
	return &DomainError{Err: ErrNotFound, Message: fmt.Sprintf("%s %s not found", entity, id)}
}

// NewConflictError reports a concurrent-modification conflict.
func NewConflictError(msg string) *DomainError {
	return &DomainError{Err: ErrConflict, Message: msg}
}

// NewValidationError reports malformed or missing request data.
func NewValidationError(msg string) *DomainError {
	return &DomainError{Err: ErrValidation, Message: msg}
}
