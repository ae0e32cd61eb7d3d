// Package budget checks a campaign's requested spend against the dealer's budget plans.
package budget

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

const (
	MessageDatesRequired = "dates required"
	MessageNoPlan        = "no budget plan covers this date range"
	MessageNoPlanFree    = "no budget plan covers this date range; zero-cost request accepted"
	MessageInsufficient  = "insufficient budget"
	MessageAvailable     = "budget available"
)

// Query describes one budget check
type Query struct {
	DealerID  string
	StartDate *time.Time
	EndDate   *time.Time
	Amount    decimal.Decimal
}

// Result is the verdict of a check. It is computed fresh on every call and never stored.
type Result struct {
	Valid           bool             `json:"valid"`
	Warning         bool             `json:"warning"`
	HasPlan         bool             `json:"has_plan"`
	AvailableBudget decimal.Decimal  `json:"available_budget"`
	RequestedBudget decimal.Decimal  `json:"requested_budget"`
	RemainingAfter  *decimal.Decimal `json:"remaining_after,omitempty"`
	PlanStart       *time.Time       `json:"plan_start,omitempty"`
	PlanEnd         *time.Time       `json:"plan_end,omitempty"`
	TotalBudget     *decimal.Decimal `json:"total_budget,omitempty"`
	UsedBudget      *decimal.Decimal `json:"used_budget,omitempty"`
	Message         string           `json:"message"`
}

// Validate checks q against plans. Plans of other dealers, inactive plans and plans
// that do not contain the whole requested range are ignored.
func Validate(q Query, plans []entity.BudgetPlan) (Result, error) {
	if q.Amount.IsNegative() {
		return Result{}, fmt.Errorf("%w: requested amount %s is negative", workflow.ErrInvalidInput, q.Amount)
	}

	if q.StartDate == nil || q.EndDate == nil {
		return Result{
			Warning:         true,
			RequestedBudget: q.Amount,
			AvailableBudget: decimal.Zero,
			Message:         MessageDatesRequired,
		}, nil
	}

	start, end := entity.DateOnly(*q.StartDate), entity.DateOnly(*q.EndDate)
	if end.Before(start) {
		return Result{}, fmt.Errorf("%w: end date %s is before start date %s",
			workflow.ErrInvalidInput, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}

	matching := qualifying(q.DealerID, start, end, plans)
	if len(matching) == 0 {
		if q.Amount.IsZero() {
			return Result{
				Valid:           true,
				Warning:         true,
				AvailableBudget: decimal.Zero,
				RequestedBudget: q.Amount,
				Message:         MessageNoPlanFree,
			}, nil
		}
		return Result{
			AvailableBudget: decimal.Zero,
			RequestedBudget: q.Amount,
			Message:         MessageNoPlan,
		}, nil
	}

	res := summarize(matching)
	res.HasPlan = true
	res.RequestedBudget = q.Amount
	res.Valid = q.Amount.LessThanOrEqual(res.AvailableBudget)
	if res.Valid {
		remaining := res.AvailableBudget.Sub(q.Amount)
		res.RemainingAfter = &remaining
		res.Message = MessageAvailable
	} else {
		res.Message = MessageInsufficient
	}

	return res, nil
}

func qualifying(dealerID string, start, end time.Time, plans []entity.BudgetPlan) []entity.BudgetPlan {
	var out []entity.BudgetPlan
	for _, p := range plans {
		if p.DealerID != dealerID || !p.IsActive {
			continue
		}
		if p.Covers(start, end) {
			out = append(out, p)
		}
	}
	return out
}

// summarize folds overlapping plans into one view: the available amount is the sum of
// each plan's remainder, the reported span is the intersection all plans share.
func summarize(plans []entity.BudgetPlan) Result {
	total, used, available := decimal.Zero, decimal.Zero, decimal.Zero
	planStart, planEnd := plans[0].StartDate, plans[0].EndDate

	for _, p := range plans {
		total = total.Add(p.TotalBudget)
		used = used.Add(p.UsedBudget)
		available = available.Add(p.Available())
		if p.StartDate.After(planStart) {
			planStart = p.StartDate
		}
		if p.EndDate.Before(planEnd) {
			planEnd = p.EndDate
		}
	}

	return Result{
		AvailableBudget: available,
		PlanStart:       &planStart,
		PlanEnd:         &planEnd,
		TotalBudget:     &total,
		UsedBudget:      &used,
	}
}
