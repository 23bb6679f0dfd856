/*
errors.go - Centralized error types for the schedule engine

PURPOSE:
  All error kinds in one place. Every engine operation returns explicit
  errors; there is no panic-based control flow. Callers branch on the four
  kinds with errors.Is / errors.As.

ERROR KINDS:
  1. ValidationError     - malformed input basis or event (client error)
  2. ConcurrencyConflict - stale Version on a mutation request (retryable)
  3. InvariantViolation  - post-generation checks failed (engine defect)
  4. DomainStateError    - mutation against a terminated/paid-off schedule

USAGE:
  if engine.IsClientError(err) { ... 400 ... }
  if engine.IsConflict(err)    { ... 409, reload and retry ... }
  if engine.IsDefect(err)      { ... 500, alert loudly ... }

SEE ALSO:
  - validate.go: produces InvariantViolation
  - mutation/handler.go: produces ConcurrencyConflict and DomainStateError
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all input validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrConcurrencyConflict is returned when a mutation carries a stale
	// schedule version. The caller must reload and retry.
	ErrConcurrencyConflict = errors.New("concurrent modification detected")

	// ErrInvariantViolation indicates a schedule failed its post-generation
	// checks even after the rounding plug. This is an engine defect, not a
	// user error, and must never be swallowed.
	ErrInvariantViolation = errors.New("schedule invariant violated")

	// ErrDomainState is returned when a mutation targets a schedule in a
	// terminal state.
	ErrDomainState = errors.New("schedule is in a terminal state")

	// ErrScheduleNotFound is returned by stores for unknown schedule IDs.
	ErrScheduleNotFound = errors.New("schedule not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError reports the offending field of a malformed basis or
// mutation event. No partial schedule is ever produced alongside one.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConcurrencyConflictError carries the version mismatch details.
type ConcurrencyConflictError struct {
	ScheduleID      ScheduleID
	ExpectedVersion int
	ActualVersion   int
}

func (e *ConcurrencyConflictError) Error() string {
	return fmt.Sprintf("schedule %s: expected version %d, found %d",
		e.ScheduleID, e.ExpectedVersion, e.ActualVersion)
}

func (e *ConcurrencyConflictError) Unwrap() error { return ErrConcurrencyConflict }

// InvariantViolationError names the failed check. It aborts the operation
// entirely; the prior schedule, if any, is left unchanged.
type InvariantViolationError struct {
	Check  string
	Detail string
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant %s violated: %s", e.Check, e.Detail)
}

func (e *InvariantViolationError) Unwrap() error { return ErrInvariantViolation }

// DomainStateError reports a mutation attempted against a terminal
// schedule.
type DomainStateError struct {
	ScheduleID ScheduleID
	State      StatusState
}

func (e *DomainStateError) Error() string {
	return fmt.Sprintf("schedule %s is %s and cannot be mutated", e.ScheduleID, e.State)
}

func (e *DomainStateError) Unwrap() error { return ErrDomainState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input
// or a disallowed state transition (4xx at an API boundary).
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDomainState)
}

// IsConflict returns true if the error might succeed after reloading the
// schedule and retrying with a fresh version.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

// IsDefect returns true if the error signals an engine bug rather than bad
// input. These should be surfaced loudly, never mapped to a user message.
func IsDefect(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

// IsNotFound returns true if the error indicates a missing schedule.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound)
}
