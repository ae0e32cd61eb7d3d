package entity

import (
	"fmt"

	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Role identifies what kind of party is acting
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleModerator      Role = "moderator"
	RoleCreativeAgency Role = "creative_agency"
	RoleDealer         Role = "dealer"
)

// IsValid returns true if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleModerator, RoleCreativeAgency, RoleDealer:
		return true
	default:
		return false
	}
}

// IsBrandStaff reports whether the role acts on behalf of the brand
func (r Role) IsBrandStaff() bool {
	return r == RoleAdmin || r == RoleModerator
}

// Actor is the caller of a workflow operation. Identity is supplied by the host.
type Actor struct {
	Role     Role   `json:"role"`
	DealerID string `json:"dealer_id,omitempty"`
	Name     string `json:"name,omitempty"`
}

// Validate checks the actor is usable for authorization
func (a Actor) Validate() error {
	if !a.Role.IsValid() {
		return fmt.Errorf("%w: unknown role %q", workflow.ErrInvalidInput, a.Role)
	}
	if a.Role == RoleDealer && a.DealerID == "" {
		return fmt.Errorf("%w: dealer actor without dealer id", workflow.ErrInvalidInput)
	}
	return nil
}

// Assignee is the party currently responsible for a creative request
type Assignee string

const (
	AssigneeCreativeAgency Assignee = "creative_agency"
	AssigneeDealer         Assignee = "dealer"
	AssigneeBrand          Assignee = "brand"
)

// IsValid returns true if the assignee is known
func (a Assignee) IsValid() bool {
	switch a {
	case AssigneeCreativeAgency, AssigneeDealer, AssigneeBrand:
		return true
	default:
		return false
	}
}

// String returns the string representation of the assignee
func (a Assignee) String() string {
	return string(a)
}

// ParseAssignee parses an assignee. Empty input means unassigned.
func ParseAssignee(raw string) (*Assignee, error) {
	if raw == "" {
		return nil, nil
	}
	a := Assignee(raw)
	if !a.IsValid() {
		return nil, fmt.Errorf("%w: unknown assignee %q", workflow.ErrInvalidInput, raw)
	}
	return &a, nil
}
