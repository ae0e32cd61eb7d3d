package port

import (
	"context"
	"encoding/json"
	"time"

	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// RequestRepository defines persistence operations for requests and their audit log
type RequestRepository interface {
	// Create stores a new request together with its initial audit events
	Create(ctx context.Context, r *entity.Request) error

	// Get loads a request with its full audit log. Returns workflow.ErrNotFound when absent.
	Get(ctx context.Context, kind workflow.Kind, id string) (*entity.Request, error)

	// Update applies patch only if the stored status still equals patch.ExpectedStatus,
	// appending patch.Events in the same write. Returns workflow.ErrConflict otherwise.
	Update(ctx context.Context, kind workflow.Kind, id string, patch RequestPatch) error

	// List returns requests matching filter without their audit logs, newest first
	List(ctx context.Context, filter RequestFilter) ([]*entity.Request, error)

	// CountByStatus groups requests of a kind by status, optionally for one dealer
	CountByStatus(ctx context.Context, kind workflow.Kind, dealerID string) ([]entity.StatusCount, error)
}

// RequestPatch is a partial update. Nil fields are left untouched.
type RequestPatch struct {
	ExpectedStatus workflow.Status
	Status         *workflow.Status
	// SetAssignee distinguishes "clear the assignee" from "leave it"
	SetAssignee bool
	AssignedTo  *entity.Assignee
	Title       *string
	Payload     json.RawMessage
	Campaign    *entity.CampaignTerms
	UpdatedAt   time.Time
	Events      []entity.AuditEvent
}

// RequestFilter narrows List
type RequestFilter struct {
	Kind       workflow.Kind
	DealerID   string
	Status     workflow.Status
	AssignedTo *entity.Assignee
	Limit      int
	Offset     int
}

// BudgetPlanRepository reads dealer budget plans
type BudgetPlanRepository interface {
	Create(ctx context.Context, plan *entity.BudgetPlan) error
	ListActiveByDealer(ctx context.Context, dealerID string) ([]entity.BudgetPlan, error)
}

// TransactionManager defines transaction boundary operations
type TransactionManager interface {
	// WithTransaction executes fn within a transaction
	// If fn returns error, transaction is rolled back
	// If fn returns nil, transaction is committed
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
