// Package authz decides which actor may move which request between which statuses.
// Every rule is a pure function of its inputs; nothing here reads ambient state.
package authz

import (
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Input is everything the gate needs to decide a transition
type Input struct {
	Actor      entity.Actor
	Kind       workflow.Kind
	OwnerID    string
	AssignedTo *entity.Assignee
	From       workflow.Status
	To         workflow.Status
}

// InputFor builds the gate input for a transition of r
func InputFor(actor entity.Actor, r *entity.Request, to workflow.Status) Input {
	return Input{
		Actor:      actor,
		Kind:       r.Kind,
		OwnerID:    r.DealerID,
		AssignedTo: r.AssignedTo,
		From:       r.Status,
		To:         to,
	}
}

// Decision is the outcome of an authorization check
type Decision struct {
	Allowed bool
	Reason  workflow.Reason
}

var allow = Decision{Allowed: true}

func deny(reason workflow.Reason) Decision {
	return Decision{Reason: reason}
}

// immutable statuses brand staff may not leave, except the campaign publish path
var immutable = map[workflow.Status]bool{
	workflow.StatusApproved:  true,
	workflow.StatusRejected:  true,
	workflow.StatusCompleted: true,
}

// Authorize decides whether in.Actor may move the request from in.From to in.To.
// Whether the edge exists at all is the transition table's concern.
func Authorize(in Input) Decision {
	switch in.Actor.Role {
	case entity.RoleAdmin, entity.RoleModerator:
		return authorizeStaff(in)
	case entity.RoleCreativeAgency:
		return authorizeAgency(in)
	case entity.RoleDealer:
		return authorizeDealer(in)
	default:
		return deny(workflow.ReasonRoleMismatch)
	}
}

func authorizeStaff(in Input) Decision {
	if !immutable[in.From] {
		return allow
	}
	if in.Kind == workflow.KindCampaign && in.From == workflow.StatusApproved && in.To == workflow.StatusLive {
		return allow
	}
	return deny(workflow.ReasonRoleMismatch)
}

func authorizeAgency(in Input) Decision {
	if in.Kind != workflow.KindCreative {
		return deny(workflow.ReasonRoleMismatch)
	}
	if !assignedTo(in.AssignedTo, entity.AssigneeCreativeAgency) {
		return deny(workflow.ReasonAssignmentMismatch)
	}
	if in.From == workflow.StatusImagePending && in.To == workflow.StatusBrandApprovalPending {
		return allow
	}
	return deny(workflow.ReasonRoleMismatch)
}

func authorizeDealer(in Input) Decision {
	if in.OwnerID == "" || in.Actor.DealerID != in.OwnerID {
		return deny(workflow.ReasonOwnershipMismatch)
	}
	if in.From == workflow.StatusDraft && in.To == workflow.SubmitTarget(in.Kind) {
		return allow
	}
	if in.Kind == workflow.KindCreative && (in.To == workflow.StatusApproved || in.To == workflow.StatusRejected) {
		if !assignedTo(in.AssignedTo, entity.AssigneeDealer) {
			return deny(workflow.ReasonAssignmentMismatch)
		}
		return allow
	}
	return deny(workflow.ReasonRoleMismatch)
}

func assignedTo(current *entity.Assignee, want entity.Assignee) bool {
	return current != nil && *current == want
}

// Check runs Authorize and turns a denial into a Forbidden error
func Check(requestID string, in Input) error {
	d := Authorize(in)
	if d.Allowed {
		return nil
	}
	return &workflow.TransitionError{
		Kind:      in.Kind,
		RequestID: requestID,
		Role:      string(in.Actor.Role),
		From:      in.From,
		To:        in.To,
		Reason:    d.Reason,
		Err:       workflow.ErrForbidden,
	}
}
