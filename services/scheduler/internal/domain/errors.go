package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound             = errors.New("demo request not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidInput         = errors.New("invalid input")
	ErrSlotRequired         = errors.New("a slot must be selected")
	ErrSlotInPast           = errors.New("slot is in the past")
	ErrSlotOutsideGrid      = errors.New("slot is not on the booking grid")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrMeetingLinkRequired  = errors.New("meeting link is required before sending an invite")
	ErrNotBooked            = errors.New("request has no active booking")
)

// ValidationError is rejected before any write is attempted.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return e.Field + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Err: fmt.Errorf("%w: %s %s", ErrInvalidInput, field, msg)}
}

func Invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// PersistenceError is a failed read, write or delete against the store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DispatchError is a failed invite send. The scheduling it follows stands.
type DispatchError struct {
	RequestID string
	Err       error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("invite dispatch for %s failed: %v", e.RequestID, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsPersistence(err error) bool {
	var p *PersistenceError
	return errors.As(err, &p)
}

func IsDispatch(err error) bool {
	var d *DispatchError
	return errors.As(err, &d)
}
