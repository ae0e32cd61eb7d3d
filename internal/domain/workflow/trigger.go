package workflow

import "fmt"

// Trigger is a named shortcut callers may use instead of an explicit target status
type Trigger string

const (
	TriggerSubmit  Trigger = "submit"
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// Target resolves the trigger to a status for the given kind
func (t Trigger) Target(kind Kind) (Status, error) {
	switch t {
	case TriggerSubmit:
		return SubmitTarget(kind), nil
	case TriggerApprove:
		return StatusApproved, nil
	case TriggerReject:
		return StatusRejected, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidInput, t)
	}
}
