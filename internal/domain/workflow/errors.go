package workflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidTransition is returned when the target is not a direct successor of the current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrTerminalState is returned when the current status permits no further transitions
	ErrTerminalState = errors.New("request is in a terminal state")

	// ErrForbidden is returned when the actor may not perform the transition
	ErrForbidden = errors.New("forbidden")

	// ErrMissingRequiredNote is returned when a rejection carries no note
	ErrMissingRequiredNote = errors.New("a note is required for this transition")

	// ErrInsufficientBudget is returned when a campaign submission exceeds the available budget
	ErrInsufficientBudget = errors.New("insufficient budget")

	// ErrConflict is returned when the request changed between read and write
	ErrConflict = errors.New("request was modified concurrently")

	// ErrNotFound is returned when the request or dealer does not exist
	ErrNotFound = errors.New("not found")

	// ErrMissingDeliverables is returned when a creative leaves the agency without delivered files
	ErrMissingDeliverables = errors.New("no delivered files")

	// ErrInvalidInput is returned for malformed kinds, statuses, amounts or date ranges
	ErrInvalidInput = errors.New("invalid input")
)

// Reason explains why a transition was denied
type Reason string

const (
	ReasonRoleMismatch       Reason = "role mismatch"
	ReasonAssignmentMismatch Reason = "assignment mismatch"
	ReasonOwnershipMismatch  Reason = "ownership mismatch"
)

// TransitionError carries the context callers need to render a failed transition.
type TransitionError struct {
	Kind      Kind
	RequestID string
	Role      string
	From      Status
	To        Status
	Reason    Reason
	Err       error
}

func (e *TransitionError) Error() string {
	msg := fmt.Sprintf("%s %s -> %s", e.Kind, e.From, e.To)
	if e.From == "" {
		msg = fmt.Sprintf("%s -> %s", e.Kind, e.To)
	}
	if e.Role != "" {
		msg += " as " + e.Role
	}
	if e.Reason != "" {
		return fmt.Sprintf("%v: %s (%s)", e.Err, msg, e.Reason)
	}
	return fmt.Sprintf("%v: %s", e.Err, msg)
}

func (e *TransitionError) Unwrap() error {
	return e.Err
}
