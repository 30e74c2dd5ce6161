/*
errors.go - Error types for the recruiting domain

ERROR CATEGORIES:
  1. Validation - a record cannot be registered as given
     (ErrPositionRequired, ErrInvalidKind, ErrInvalidCount)
  2. Lookup - the record to update does not exist (ErrRecordNotFound)
  3. Conflict - a requisition's ATS system ID is already taken
     (ErrDuplicateSystemID)

Stores wrap their own failures with fmt.Errorf("...: %w") and return
ErrRecordNotFound for missing rows so callers can use errors.Is.
*/
package recruiting

import (
	"errors"
	"fmt"
)

var (
	// ErrPositionRequired is returned when a record has no position name.
	ErrPositionRequired = errors.New("position is required")

	// ErrRecordNotFound is returned when an update or lookup targets a
	// record that does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrInvalidKind is returned for an unknown master or termination kind.
	ErrInvalidKind = errors.New("invalid kind")

	// ErrInvalidCount is returned for negative position counts.
	ErrInvalidCount = errors.New("invalid count")

	// ErrDuplicateSystemID is returned when two requisitions would share
	// an ATS system ID.
	ErrDuplicateSystemID = errors.New("duplicate system id")
)

// InvalidKindError names the field and the rejected value.
type InvalidKindError struct {
	Field string
	Value string
}

func (e *InvalidKindError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

func (e *InvalidKindError) Unwrap() error {
	return ErrInvalidKind
}

// NotFoundError identifies the missing record.
type NotFoundError struct {
	Table string
	ID    int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %d not found", e.Table, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return ErrRecordNotFound
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrPositionRequired) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrInvalidCount)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRecordNotFound)
}

// IsConflict returns true if the write collided with an existing record.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateSystemID)
}
