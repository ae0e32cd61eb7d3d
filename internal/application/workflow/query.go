package workflow

import (
	"context"
	"fmt"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/authz"
	"github.com/for4for/dealer-workflow/internal/domain/budget"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// CheckBudget answers whether the dealer can afford a campaign. Dealers may only ask
// about themselves.
func (f *facadeImpl) CheckBudget(ctx context.Context, actor entity.Actor, q budget.Query) (budget.Result, error) {
	if err := actor.Validate(); err != nil {
		return budget.Result{}, err
	}
	if q.DealerID == "" {
		return budget.Result{}, fmt.Errorf("%w: dealer id is required", domainwf.ErrInvalidInput)
	}
	switch {
	case actor.Role.IsBrandStaff():
	case actor.Role == entity.RoleDealer && actor.DealerID == q.DealerID:
	default:
		return budget.Result{}, fmt.Errorf("%w: %s may not read the budget of dealer %s", domainwf.ErrForbidden, actor.Role, q.DealerID)
	}
	return f.evaluateBudget(ctx, q)
}

func (f *facadeImpl) evaluateBudget(ctx context.Context, q budget.Query) (budget.Result, error) {
	var plans []entity.BudgetPlan
	if q.StartDate != nil && q.EndDate != nil {
		var err error
		plans, err = f.plans.ListActiveByDealer(ctx, q.DealerID)
		if err != nil {
			f.logError("Failed to list budget plans", "error", err, "dealer_id", q.DealerID)
			return budget.Result{}, fmt.Errorf("failed to list budget plans: %w", err)
		}
	}

	res, err := budget.Validate(q, plans)
	if err != nil {
		return budget.Result{}, err
	}
	if f.recorder != nil {
		f.recorder.ObserveBudgetCheck(res)
	}
	return res, nil
}

// GetTimeline returns the request and its timeline, rebuilt on every call
func (f *facadeImpl) GetTimeline(ctx context.Context, actor entity.Actor, kind domainwf.Kind, id string) (*Outcome, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}

	r, _, err := f.load(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if err := authz.CheckVisible(actor, r, r.Status); err != nil {
		return nil, err
	}
	return f.outcome(r), nil
}

// List narrows filter to what the actor is allowed to see
func (f *facadeImpl) List(ctx context.Context, actor entity.Actor, filter port.RequestFilter) ([]*entity.Request, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := domainwf.TableFor(filter.Kind); err != nil {
		return nil, err
	}

	switch actor.Role {
	case entity.RoleDealer:
		filter.DealerID = actor.DealerID
	case entity.RoleCreativeAgency:
		if filter.Kind != domainwf.KindCreative {
			return nil, fmt.Errorf("%w: creative agency only sees creative requests", domainwf.ErrForbidden)
		}
		agency := entity.AssigneeCreativeAgency
		filter.AssignedTo = &agency
	}

	requests, err := f.requests.List(ctx, filter)
	if err != nil {
		f.logError("Failed to list requests", "error", err, "kind", filter.Kind)
		return nil, err
	}
	return requests, nil
}

// CountByStatus returns per-status totals. Dealers get their own numbers only.
func (f *facadeImpl) CountByStatus(ctx context.Context, actor entity.Actor, kind domainwf.Kind) ([]entity.StatusCount, error) {
	if err := actor.Validate(); err != nil {
		return nil, err
	}
	if _, err := domainwf.TableFor(kind); err != nil {
		return nil, err
	}

	var dealerID string
	switch actor.Role {
	case entity.RoleAdmin, entity.RoleModerator:
	case entity.RoleDealer:
		dealerID = actor.DealerID
	default:
		return nil, fmt.Errorf("%w: %s may not read statistics", domainwf.ErrForbidden, actor.Role)
	}

	counts, err := f.requests.CountByStatus(ctx, kind, dealerID)
	if err != nil {
		f.logError("Failed to count requests", "error", err, "kind", kind)
		return nil, err
	}
	return counts, nil
}
