package workflow

import (
	"context"
	"encoding/json"
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

// Submit creates a request and, unless it is saved as a draft, submits it for review
func (f *facadeImpl) Submit(ctx context.Context, actor entity.Actor, cmd SubmitCommand) (out *Outcome, err error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	table, err := domainwf.TableFor(cmd.Kind)
	if err != nil {
		return nil, err
	}
	if cmd.DealerID == "" {
		return nil, fmt.Errorf("%w: dealer id is required", domainwf.ErrInvalidInput)
	}
	if err := validatePayload(cmd.Kind, cmd.Payload, cmd.Campaign); err != nil {
		return nil, err
	}

	now := f.now().UTC()
	r := &entity.Request{
		ID:        f.newID(),
		DealerID:  cmd.DealerID,
		Kind:      cmd.Kind,
		Status:    domainwf.StatusDraft,
		Title:     strings.TrimSpace(cmd.Title),
		Payload:   cmd.Payload,
		Campaign:  cmd.Campaign,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if d := authz.CanCreate(actor, cmd.DealerID); !d.Allowed {
		return nil, forbidden(r, actor, domainwf.StatusDraft, d.Reason)
	}

	created := f.newEvent(r, entity.ActionCreated, actor, entity.EventDetails{
		NewStatus: domainwf.StatusDraft,
		Note:      strings.TrimSpace(cmd.Note),
	}, now)
	events := []entity.AuditEvent{created}

	var verdict *budget.Result
	to := domainwf.SubmitTarget(cmd.Kind)
	if !cmd.SaveAsDraft {
		start := now
		defer func() {
			if f.recorder != nil {
				f.recorder.ObserveTransition(cmd.Kind, domainwf.StatusDraft, to, err, f.now().Sub(start))
			}
		}()

		if err := authz.Check(r.ID, authz.InputFor(actor, r, to)); err != nil {
			return nil, err
		}
		machine := table.Machine(domainwf.StatusDraft)
		if err := machine.Fire(ctx, to, domainwf.Subject{Note: cmd.Note}); err != nil {
			return nil, transitionError(r, actor, to, err)
		}
		if verdict, err = f.gateBudget(ctx, r, to); err != nil {
			return nil, transitionError(r, actor, to, err)
		}

		draft := r.Clone()
		assignee := routing.Apply(r, to)
		events = append(events, f.transitionEvent(draft, actor, to, assignee, "", r))
	}

	err = f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		stored := r.Clone()
		stored.AuditLog = events
		return f.requests.Create(txCtx, stored)
	})
	if err != nil {
		f.logError("Failed to create request", "error", err, "kind", r.Kind, "dealer_id", r.DealerID)
		return nil, err
	}
	appendLocal(r, events...)

	f.logInfo("Request created",
		"request_id", r.ID,
		"kind", r.Kind,
		"dealer_id", r.DealerID,
		"status", r.Status,
		"role", actor.Role,
	)

	f.publish(ctx, event.TypeRequestCreated, r, actor, map[string]interface{}{
		event.KeyToStatus: r.Status.String(),
	})
	if !cmd.SaveAsDraft {
		payload := map[string]interface{}{
			event.KeyFromStatus: domainwf.StatusDraft.String(),
			event.KeyToStatus:   to.String(),
		}
		if r.AssignedTo != nil {
			payload[event.KeyAssignee] = r.AssignedTo.String()
		}
		f.publish(ctx, event.TypeRequestSubmitted, r, actor, payload)
	}

	out = f.outcome(r)
	out.Budget = verdict
	return out, nil
}

// Edit replaces title, payload or campaign terms of a request still open for editing
func (f *facadeImpl) Edit(ctx context.Context, actor entity.Actor, cmd EditCommand) (*Outcome, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if cmd.Title == nil && cmd.Payload == nil && cmd.Campaign == nil {
		return nil, fmt.Errorf("%w: nothing to update", domainwf.ErrInvalidInput)
	}
	if err := validatePayload(cmd.Kind, cmd.Payload, cmd.Campaign); err != nil {
		return nil, err
	}

	r, table, err := f.load(ctx, cmd.Kind, cmd.ID)
	if err != nil {
		return nil, err
	}

	if err := authz.CheckVisible(actor, r, r.Status); err != nil {
		return nil, err
	}
	if d := authz.CanEdit(actor, r, table); !d.Allowed {
		return nil, forbidden(r, actor, r.Status, d.Reason)
	}

	next := r.Clone()
	if cmd.Title != nil {
		title := strings.TrimSpace(*cmd.Title)
		next.Title = title
		cmd.Title = &title
	}
	if cmd.Payload != nil {
		next.Payload = cmd.Payload
	}
	if cmd.Campaign != nil {
		terms := *cmd.Campaign
		next.Campaign = &terms
	}
	next.UpdatedAt = f.timestamp(r.UpdatedAt)

	evt := f.newEvent(r, entity.ActionUpdated, actor, entity.EventDetails{}, next.UpdatedAt)
	patch := port.RequestPatch{
		ExpectedStatus: r.Status,
		Title:          cmd.Title,
		Payload:        cmd.Payload,
		Campaign:       next.Campaign,
		UpdatedAt:      next.UpdatedAt,
		Events:         []entity.AuditEvent{evt},
	}
	if cmd.Campaign == nil {
		patch.Campaign = nil
	}
	if err := f.write(ctx, r, patch); err != nil {
		return nil, transitionError(r, actor, r.Status, err)
	}
	appendLocal(next, evt)

	f.publish(ctx, event.TypeRequestUpdated, next, actor, nil)
	return f.outcome(next), nil
}

// validatePayload checks the parts of a request the workflow itself relies on.
// The kind-specific payload is opaque beyond being a JSON object.
func validatePayload(kind domainwf.Kind, payload json.RawMessage, terms *entity.CampaignTerms) error {
	if payload != nil && !json.Valid(payload) {
		return fmt.Errorf("%w: payload is not valid JSON", domainwf.ErrInvalidInput)
	}
	if terms == nil {
		return nil
	}
	if kind != domainwf.KindCampaign {
		return fmt.Errorf("%w: campaign terms on a %s request", domainwf.ErrInvalidInput, kind)
	}
	if terms.Budget.IsNegative() {
		return fmt.Errorf("%w: campaign budget is negative", domainwf.ErrInvalidInput)
	}
	if terms.StartDate != nil && terms.EndDate != nil &&
		entity.DateOnly(*terms.EndDate).Before(entity.DateOnly(*terms.StartDate)) {
		return fmt.Errorf("%w: campaign ends before it starts", domainwf.ErrInvalidInput)
	}
	return nil
}
