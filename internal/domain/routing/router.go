// Package routing keeps the owning party of a creative request in step with its status.
package routing

import (
	"fmt"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

var statusByAssignee = map[entity.Assignee]workflow.Status{
	entity.AssigneeCreativeAgency: workflow.StatusImagePending,
	entity.AssigneeDealer:         workflow.StatusDealerApprovalPending,
	entity.AssigneeBrand:          workflow.StatusBrandApprovalPending,
}

// AssigneeFor returns the party that owns a creative in status s.
// Decided statuses have no owner.
func AssigneeFor(s workflow.Status) *entity.Assignee {
	for a, status := range statusByAssignee {
		if status == s {
			owner := a
			return &owner
		}
	}
	return nil
}

// StatusFor returns the status a creative enters when handed to a
func StatusFor(a entity.Assignee) (workflow.Status, error) {
	s, ok := statusByAssignee[a]
	if !ok {
		return "", fmt.Errorf("%w: unknown assignee %q", workflow.ErrInvalidInput, a)
	}
	return s, nil
}

// IsRouting reports whether a creative transition hands the request to another party
// rather than deciding it
func IsRouting(kind workflow.Kind, to workflow.Status) bool {
	return kind == workflow.KindCreative && AssigneeFor(to) != nil
}

// Apply moves r to status to and, for creatives, sets the matching assignee in the same step.
// It returns the assignee that was set, nil when the request became unassigned.
func Apply(r *entity.Request, to workflow.Status) *entity.Assignee {
	r.Status = to
	if r.Kind != workflow.KindCreative {
		return nil
	}
	r.AssignedTo = AssigneeFor(to)
	return r.AssignedTo
}

// Route hands a creative request to target, returning the updated copy.
// The transition itself must already have been validated and authorized.
func Route(r *entity.Request, target entity.Assignee) (*entity.Request, error) {
	if r.Kind != workflow.KindCreative {
		return nil, fmt.Errorf("%w: only creative requests are routed", workflow.ErrInvalidInput)
	}
	to, err := StatusFor(target)
	if err != nil {
		return nil, err
	}
	out := r.Clone()
	Apply(out, to)
	return out, nil
}
