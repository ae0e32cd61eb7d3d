package authz

import (
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// CanView reports whether the actor may read the request and its timeline.
// Brand staff see everything, dealers their own requests, the agency only
// creatives currently assigned to it.
func CanView(actor entity.Actor, r *entity.Request) bool {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleModerator:
		return true
	case entity.RoleDealer:
		return r.OwnedBy(actor.DealerID)
	case entity.RoleCreativeAgency:
		return r.Kind == workflow.KindCreative && r.IsAssignedTo(entity.AssigneeCreativeAgency)
	default:
		return false
	}
}

// CheckVisible returns a Forbidden error when the actor may not see r. The error
// names the attempted target but never the current status.
func CheckVisible(actor entity.Actor, r *entity.Request, to workflow.Status) error {
	if CanView(actor, r) {
		return nil
	}

	reason := workflow.ReasonRoleMismatch
	switch {
	case actor.Role == entity.RoleDealer:
		reason = workflow.ReasonOwnershipMismatch
	case actor.Role == entity.RoleCreativeAgency && r.Kind == workflow.KindCreative:
		reason = workflow.ReasonAssignmentMismatch
	}

	return &workflow.TransitionError{
		Kind:      r.Kind,
		RequestID: r.ID,
		Role:      string(actor.Role),
		To:        to,
		Reason:    reason,
		Err:       workflow.ErrForbidden,
	}
}

// CanCreate reports whether the actor may open a request for the dealer
func CanCreate(actor entity.Actor, dealerID string) Decision {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleModerator:
		return allow
	case entity.RoleDealer:
		if actor.DealerID != dealerID {
			return deny(workflow.ReasonOwnershipMismatch)
		}
		return allow
	default:
		return deny(workflow.ReasonRoleMismatch)
	}
}

// CanEdit reports whether the actor may replace the request payload in its current status
func CanEdit(actor entity.Actor, r *entity.Request, table *workflow.Table) Decision {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleModerator:
		if table.IsTerminal(r.Status) || immutable[r.Status] {
			return deny(workflow.ReasonRoleMismatch)
		}
		return allow
	case entity.RoleDealer:
		if !r.OwnedBy(actor.DealerID) {
			return deny(workflow.ReasonOwnershipMismatch)
		}
		if r.Status == workflow.StatusDraft || r.Status == workflow.StatusDealerApprovalPending {
			return allow
		}
		return deny(workflow.ReasonRoleMismatch)
	default:
		return deny(workflow.ReasonRoleMismatch)
	}
}

// CanComment reports whether the actor may attach a note without changing status.
// Notes are allowed on terminal requests.
func CanComment(actor entity.Actor, r *entity.Request) Decision {
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleModerator:
		return allow
	case entity.RoleDealer:
		if !r.OwnedBy(actor.DealerID) {
			return deny(workflow.ReasonOwnershipMismatch)
		}
		return allow
	case entity.RoleCreativeAgency:
		if r.Kind != workflow.KindCreative {
			return deny(workflow.ReasonRoleMismatch)
		}
		if !r.IsAssignedTo(entity.AssigneeCreativeAgency) {
			return deny(workflow.ReasonAssignmentMismatch)
		}
		return allow
	default:
		return deny(workflow.ReasonRoleMismatch)
	}
}
