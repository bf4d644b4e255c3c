/*
errors.go - Centralized error taxonomy for the planning engine

PURPOSE:
  All cross-package error types in one place. The split mirrors how callers
  are expected to react:

  1. Business-rule rejections  - typed results the caller presents
     (quota exceeded, already submitted, awaiting publication)
  2. Infrastructure failures   - retryable, never corrupt in-memory state
     (persistence)
  3. Defensive conditions      - skipped or surfaced, never a crash
     (malformed date keys)

USAGE:
  switch {
  case errors.Is(err, policy.ErrQuotaExceeded):
      // name the limit type and week via the structured error
  case errors.Is(err, policy.ErrAlreadySubmitted):
      // block further mutation
  case policy.IsRetryable(err):
      // surface a retry prompt, state is unchanged
  }
*/
package policy

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrQuotaExceeded is the umbrella for monthly/weekly cap rejections.
	// Wrapped by MonthlyLimitError and WeeklyLimitError.
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrAlreadySubmitted is returned when a mutation targets a month whose
	// selection has been submitted and frozen.
	ErrAlreadySubmitted = errors.New("selection already submitted")

	// ErrAwaitingPublication is returned when the consuming role requests
	// editing before any policy has been published for the month.
	// Expected and non-fatal.
	ErrAwaitingPublication = errors.New("awaiting publication")

	// ErrPolicyNotFound is returned when a referenced policy record does
	// not exist.
	ErrPolicyNotFound = errors.New("policy not found")

	// ErrPersistence is the umbrella for store and serialization failures.
	// Retryable; a failed save leaves prior state unchanged.
	ErrPersistence = errors.New("persistence failure")

	// ErrMalformedDateKey is returned when a date string fails to parse as
	// "YYYY-MM-DD". Aggregate computations skip such keys instead.
	ErrMalformedDateKey = errors.New("malformed date key")

	// ErrDateOutsideMonth is returned when a selection operation targets a
	// date that does not belong to the month being edited.
	ErrDateOutsideMonth = errors.New("date outside displayed month")
)

// =============================================================================
// STRUCTURED ERRORS - Carry the context the caller presents
// =============================================================================

// MonthlyLimitError reports a rejected add against the monthly cap.
type MonthlyLimitError struct {
	Limit    int
	Selected int
}

func (e *MonthlyLimitError) Error() string {
	return fmt.Sprintf("monthly limit reached: %d of %d days selected", e.Selected, e.Limit)
}

func (e *MonthlyLimitError) Unwrap() error { return ErrQuotaExceeded }

// WeeklyLimitError reports a rejected add (or invalid submit) against the
// weekly cap, naming the violating week bucket.
type WeeklyLimitError struct {
	Week  int
	Limit int
	Count int
}

func (e *WeeklyLimitError) Error() string {
	return fmt.Sprintf("weekly limit reached in week %d: %d of %d days selected", e.Week, e.Count, e.Limit)
}

func (e *WeeklyLimitError) Unwrap() error { return ErrQuotaExceeded }

// PersistenceError reports a store or serialization failure for one key.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return ErrPersistence }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsQuotaExceeded reports whether err is a monthly or weekly cap rejection.
func IsQuotaExceeded(err error) bool { return errors.Is(err, ErrQuotaExceeded) }

// IsRetryable reports whether the failed operation might succeed on retry.
func IsRetryable(err error) bool { return errors.Is(err, ErrPersistence) }

// IsNotFound reports whether err indicates a missing policy record.
func IsNotFound(err error) bool { return errors.Is(err, ErrPolicyNotFound) }

// IsBusinessRejection reports whether err is an expected business-rule
// rejection rather than an infrastructure failure.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) ||
		errors.Is(err, ErrAlreadySubmitted) ||
		errors.Is(err, ErrAwaitingPublication)
}
