/*
errors.go - Error types for the temporal aggregation engine

ERROR CATEGORIES:
  1. InvalidPeriod - a period selection that cannot be turned into dates.
     Always returned to the caller, never coerced into a default.
  2. Unparseable dates - local to one record. Never returned: the record
     simply does not match a bounded filter, or gets an undefined duration.

Empty collections are not errors anywhere in this package.
*/
package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPeriod is returned when a Selection cannot be resolved.
	ErrInvalidPeriod = errors.New("invalid period")
)

// InvalidPeriodError describes which selection was rejected and why.
type InvalidPeriodError struct {
	Mode   Mode
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period (%s): %s", e.Mode, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

func invalidPeriod(mode Mode, format string, args ...any) error {
	return &InvalidPeriodError{Mode: mode, Reason: fmt.Sprintf(format, args...)}
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod)
}
