package repository

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/infrastructure/persistence/sqlite"
)

// BudgetPlanRepository implements port.BudgetPlanRepository
type BudgetPlanRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewBudgetPlanRepository creates a new budget plan repository
func NewBudgetPlanRepository(db *sqlite.DB, logger *zap.Logger) port.BudgetPlanRepository {
	return &BudgetPlanRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a budget plan
func (r *BudgetPlanRepository) Create(ctx context.Context, plan *entity.BudgetPlan) error {
	query := `
		INSERT INTO budget_plans (id, dealer_id, start_date, end_date, total_budget, used_budget, is_active)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Executor(ctx).ExecContext(ctx, query,
		plan.ID,
		plan.DealerID,
		plan.StartDate.Format(time.DateOnly),
		plan.EndDate.Format(time.DateOnly),
		plan.TotalBudget.String(),
		plan.UsedBudget.String(),
		plan.IsActive,
	)
	if err != nil {
		r.logger.Error("Failed to create budget plan",
			zap.String("plan_id", plan.ID),
			zap.String("dealer_id", plan.DealerID),
			zap.Error(err))
		return fmt.Errorf("failed to create budget plan: %w", err)
	}

	return nil
}

// ListActiveByDealer returns the dealer's active plans ordered by start date
func (r *BudgetPlanRepository) ListActiveByDealer(ctx context.Context, dealerID string) ([]entity.BudgetPlan, error) {
	query := `
		SELECT id, dealer_id, start_date, end_date, total_budget, used_budget, is_active
		FROM budget_plans
		WHERE dealer_id = ? AND is_active = 1
		ORDER BY start_date, id
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, dealerID)
	if err != nil {
		r.logger.Error("Failed to list budget plans", zap.String("dealer_id", dealerID), zap.Error(err))
		return nil, fmt.Errorf("failed to list budget plans: %w", err)
	}
	defer rows.Close()

	var plans []entity.BudgetPlan
	for rows.Next() {
		var p entity.BudgetPlan
		var start, end string
		if err := rows.Scan(&p.ID, &p.DealerID, &start, &end, &p.TotalBudget, &p.UsedBudget, &p.IsActive); err != nil {
			return nil, fmt.Errorf("failed to scan budget plan: %w", err)
		}
		if p.StartDate, err = time.Parse(time.DateOnly, start); err != nil {
			return nil, fmt.Errorf("invalid plan start date %q: %w", start, err)
		}
		if p.EndDate, err = time.Parse(time.DateOnly, end); err != nil {
			return nil, fmt.Errorf("invalid plan end date %q: %w", end, err)
		}
		plans = append(plans, p)
	}

	return plans, rows.Err()
}
