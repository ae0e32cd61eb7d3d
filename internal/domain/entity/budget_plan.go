package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetPlan is a dealer-scoped, date-ranged spending allowance. Read-only to the workflow.
type BudgetPlan struct {
	ID          string          `json:"id"`
	DealerID    string          `json:"dealer_id"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	TotalBudget decimal.Decimal `json:"total_budget"`
	UsedBudget  decimal.Decimal `json:"used_budget"`
	IsActive    bool            `json:"is_active"`
}

// Available is what remains of the plan
func (p *BudgetPlan) Available() decimal.Decimal {
	return p.TotalBudget.Sub(p.UsedBudget)
}

// Covers reports whether the plan contains the whole range, both ends inclusive
func (p *BudgetPlan) Covers(start, end time.Time) bool {
	s, e := DateOnly(start), DateOnly(end)
	return !DateOnly(p.StartDate).After(s) && !DateOnly(p.EndDate).Before(e)
}

// DateOnly truncates t to its calendar date in UTC
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
