package event

// Type identifies the type of domain event
type Type string

const (
	TypeRequestCreated   Type = "request.created"
	TypeRequestSubmitted Type = "request.submitted"
	TypeStatusChanged    Type = "request.status_changed"
	TypeRequestRouted    Type = "request.routed"
	TypeRequestUpdated   Type = "request.updated"
	TypeNoteAdded        Type = "request.note_added"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeRequestCreated,
		TypeRequestSubmitted,
		TypeStatusChanged,
		TypeRequestRouted,
		TypeRequestUpdated,
		TypeNoteAdded:
		return true
	default:
		return false
	}
}
