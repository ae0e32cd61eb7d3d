package workflow

import (
	"context"
	"fmt"
	"strings"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/authz"
	"github.com/for4for/dealer-workflow/internal/domain/budget"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/event"
	"github.com/for4for/dealer-workflow/internal/domain/routing"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Transition moves a request along one edge of its kind's table
func (f *facadeImpl) Transition(ctx context.Context, actor entity.Actor, cmd TransitionCommand) (*Outcome, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	r, table, err := f.load(ctx, cmd.Kind, cmd.ID)
	if err != nil {
		return nil, err
	}

	to := cmd.To
	if to == "" {
		if cmd.Action == "" {
			return nil, fmt.Errorf("%w: target status or action is required", domainwf.ErrInvalidInput)
		}
		if to, err = cmd.Action.Target(cmd.Kind); err != nil {
			return nil, err
		}
	}

	if to == r.Status {
		return f.sameState(ctx, actor, r, cmd.Note)
	}
	return f.apply(ctx, actor, r, table, to, cmd.Note)
}

// Route hands a creative to another party. It is a transition to the status the
// assignee owns.
func (f *facadeImpl) Route(ctx context.Context, actor entity.Actor, cmd RouteCommand) (*Outcome, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if cmd.Kind != domainwf.KindCreative {
		return nil, fmt.Errorf("%w: only creative requests are routed", domainwf.ErrInvalidInput)
	}

	r, table, err := f.load(ctx, cmd.Kind, cmd.ID)
	if err != nil {
		return nil, err
	}

	routed, err := routing.Route(r, cmd.Assignee)
	if err != nil {
		return nil, err
	}

	if routed.Status == r.Status {
		return f.sameState(ctx, actor, r, cmd.Note)
	}
	return f.apply(ctx, actor, r, table, routed.Status, cmd.Note)
}

// Comment attaches a note in any status, terminal ones included
func (f *facadeImpl) Comment(ctx context.Context, actor entity.Actor, kind domainwf.Kind, id, note string) (*Outcome, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(note) == "" {
		return nil, fmt.Errorf("%w: comment is empty", domainwf.ErrMissingRequiredNote)
	}

	r, _, err := f.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return f.comment(ctx, actor, r, note)
}

// apply runs the full transition pipeline: visibility, table, gate, guards, budget,
// write, publish. Nothing is written unless every step passes.
func (f *facadeImpl) apply(ctx context.Context, actor entity.Actor, r *entity.Request, table *domainwf.Table, to domainwf.Status, note string) (out *Outcome, err error) {
	start := f.now()
	from := r.Status
	defer func() {
		if f.recorder != nil {
			f.recorder.ObserveTransition(r.Kind, from, to, err, f.now().Sub(start))
		}
		if err != nil {
			f.logInfo("Transition refused",
				"request_id", r.ID,
				"kind", r.Kind,
				"role", actor.Role,
				"from", from,
				"to", to,
				"error", err,
			)
		}
	}()

	// Callers who may not see the request learn nothing about its status
	if err := authz.CheckVisible(actor, r, to); err != nil {
		return nil, err
	}

	if err := table.Validate(from, to); err != nil {
		return nil, transitionError(r, actor, to, err)
	}

	if err := authz.Check(r.ID, authz.InputFor(actor, r, to)); err != nil {
		return nil, err
	}

	machine := table.Machine(from)
	if err := machine.Fire(ctx, to, domainwf.Subject{Note: note, DeliveredFiles: r.DeliveredFiles}); err != nil {
		return nil, transitionError(r, actor, to, err)
	}

	verdict, err := f.gateBudget(ctx, r, to)
	if err != nil {
		return nil, transitionError(r, actor, to, err)
	}

	next := r.Clone()
	assignee := routing.Apply(next, machine.State())
	next.UpdatedAt = f.timestamp(r.UpdatedAt)

	evt := f.transitionEvent(r, actor, to, assignee, note, next)
	patch := port.RequestPatch{
		ExpectedStatus: from,
		Status:         &to,
		SetAssignee:    r.Kind == domainwf.KindCreative,
		AssignedTo:     next.AssignedTo,
		UpdatedAt:      next.UpdatedAt,
		Events:         []entity.AuditEvent{evt},
	}
	if err := f.write(ctx, r, patch); err != nil {
		return nil, transitionError(r, actor, to, err)
	}
	appendLocal(next, evt)

	f.logInfo("Request transitioned",
		"request_id", r.ID,
		"kind", r.Kind,
		"role", actor.Role,
		"from", from,
		"to", to,
	)

	payload := map[string]interface{}{
		event.KeyFromStatus: from.String(),
		event.KeyToStatus:   to.String(),
		event.KeyNote:       note,
	}
	if assignee != nil {
		payload[event.KeyAssignee] = assignee.String()
	}
	f.publish(ctx, eventTypeFor(r.Kind, from, to), next, actor, payload)

	out = f.outcome(next)
	out.Budget = verdict
	return out, nil
}

// transitionEvent records a routing hand-off as sent and everything else as a status change
func (f *facadeImpl) transitionEvent(r *entity.Request, actor entity.Actor, to domainwf.Status, assignee *entity.Assignee, note string, next *entity.Request) entity.AuditEvent {
	details := entity.EventDetails{
		PreviousStatus: r.Status,
		NewStatus:      to,
		Note:           strings.TrimSpace(note),
	}
	action := entity.ActionStatusChange
	if routing.IsRouting(r.Kind, to) {
		action = entity.ActionSent
		details.NewAssignee = assignee
	}
	return f.newEvent(r, action, actor, details, next.UpdatedAt)
}

// sameState is the no-op transition. A note turns it into a comment.
func (f *facadeImpl) sameState(ctx context.Context, actor entity.Actor, r *entity.Request, note string) (*Outcome, error) {
	if strings.TrimSpace(note) != "" {
		return f.comment(ctx, actor, r, note)
	}
	if err := authz.CheckVisible(actor, r, r.Status); err != nil {
		return nil, err
	}
	return f.outcome(r), nil
}

func (f *facadeImpl) comment(ctx context.Context, actor entity.Actor, r *entity.Request, note string) (*Outcome, error) {
	if err := authz.CheckVisible(actor, r, r.Status); err != nil {
		return nil, err
	}
	if d := authz.CanComment(actor, r); !d.Allowed {
		return nil, forbidden(r, actor, r.Status, d.Reason)
	}

	next := r.Clone()
	next.UpdatedAt = f.timestamp(r.UpdatedAt)
	evt := f.newEvent(r, entity.ActionNote, actor, entity.EventDetails{Note: strings.TrimSpace(note)}, next.UpdatedAt)

	patch := port.RequestPatch{
		ExpectedStatus: r.Status,
		UpdatedAt:      next.UpdatedAt,
		Events:         []entity.AuditEvent{evt},
	}
	if err := f.write(ctx, r, patch); err != nil {
		return nil, transitionError(r, actor, r.Status, err)
	}
	appendLocal(next, evt)

	f.publish(ctx, event.TypeNoteAdded, next, actor, map[string]interface{}{
		event.KeyNote: evt.Details.Note,
	})
	return f.outcome(next), nil
}

// gateBudget runs the budget validator before a campaign leaves draft for review
func (f *facadeImpl) gateBudget(ctx context.Context, r *entity.Request, to domainwf.Status) (*budget.Result, error) {
	if r.Kind != domainwf.KindCampaign || r.Status != domainwf.StatusDraft || to != domainwf.StatusPendingApproval {
		return nil, nil
	}

	res, err := f.evaluateBudget(ctx, queryFor(r))
	if err != nil {
		return nil, err
	}
	if !res.Valid {
		return &res, fmt.Errorf("%w: %s", domainwf.ErrInsufficientBudget, res.Message)
	}
	return &res, nil
}

func queryFor(r *entity.Request) budget.Query {
	q := budget.Query{DealerID: r.DealerID}
	if r.Campaign != nil {
		q.StartDate = r.Campaign.StartDate
		q.EndDate = r.Campaign.EndDate
		q.Amount = r.Campaign.Budget
	}
	return q
}

func eventTypeFor(kind domainwf.Kind, from, to domainwf.Status) event.Type {
	switch {
	case from == domainwf.StatusDraft && to == domainwf.SubmitTarget(kind):
		return event.TypeRequestSubmitted
	case routing.IsRouting(kind, to):
		return event.TypeRequestRouted
	default:
		return event.TypeStatusChanged
	}
}

func forbidden(r *entity.Request, actor entity.Actor, to domainwf.Status, reason domainwf.Reason) error {
	return &domainwf.TransitionError{
		Kind:      r.Kind,
		RequestID: r.ID,
		Role:      string(actor.Role),
		From:      r.Status,
		To:        to,
		Reason:    reason,
		Err:       domainwf.ErrForbidden,
	}
}
