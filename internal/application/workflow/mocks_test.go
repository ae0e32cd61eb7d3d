package workflow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/for4for/dealer-workflow/internal/application/dispatcher"
	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/budget"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/event"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// mockRequestRepo keeps requests in memory and honours the conditional update contract
type mockRequestRepo struct {
	mu        sync.Mutex
	requests  map[string]*entity.Request
	updates   int
	getErr    error
	updateErr error
	// beforeUpdate lets a test change the stored row between read and write
	beforeUpdate func(stored *entity.Request)
}

func newMockRequestRepo(rs ...*entity.Request) *mockRequestRepo {
	m := &mockRequestRepo{requests: map[string]*entity.Request{}}
	for _, r := range rs {
		m.requests[r.ID] = r.Clone()
	}
	return m
}

func (m *mockRequestRepo) Create(ctx context.Context, r *entity.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := r.Clone()
	for i := range c.AuditLog {
		c.AuditLog[i].Seq = int64(i + 1)
	}
	m.requests[r.ID] = c
	return nil
}

func (m *mockRequestRepo) Get(ctx context.Context, kind domainwf.Kind, id string) (*entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	r, ok := m.requests[id]
	if !ok || r.Kind != kind {
		return nil, fmt.Errorf("%w: %s %s", domainwf.ErrNotFound, kind, id)
	}
	return r.Clone(), nil
}

func (m *mockRequestRepo) Update(ctx context.Context, kind domainwf.Kind, id string, patch port.RequestPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	r, ok := m.requests[id]
	if !ok {
		return domainwf.ErrNotFound
	}
	if m.beforeUpdate != nil {
		m.beforeUpdate(r)
	}
	if r.Status != patch.ExpectedStatus {
		return fmt.Errorf("%w: expected %s, found %s", domainwf.ErrConflict, patch.ExpectedStatus, r.Status)
	}

	m.updates++
	if patch.Status != nil {
		r.Status = *patch.Status
	}
	if patch.SetAssignee {
		r.AssignedTo = patch.AssignedTo
	}
	if patch.Title != nil {
		r.Title = *patch.Title
	}
	if patch.Payload != nil {
		r.Payload = patch.Payload
	}
	if patch.Campaign != nil {
		r.Campaign = patch.Campaign
	}
	r.UpdatedAt = patch.UpdatedAt
	for _, e := range patch.Events {
		e.Seq = int64(len(r.AuditLog) + 1)
		r.AuditLog = append(r.AuditLog, e)
	}
	return nil
}

func (m *mockRequestRepo) List(ctx context.Context, filter port.RequestFilter) ([]*entity.Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Request
	for _, r := range m.requests {
		if r.Kind != filter.Kind {
			continue
		}
		if filter.DealerID != "" && r.DealerID != filter.DealerID {
			continue
		}
		if filter.AssignedTo != nil && !r.IsAssignedTo(*filter.AssignedTo) {
			continue
		}
		out = append(out, r.Clone())
	}
	return out, nil
}

func (m *mockRequestRepo) CountByStatus(ctx context.Context, kind domainwf.Kind, dealerID string) ([]entity.StatusCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := map[domainwf.Status]int{}
	for _, r := range m.requests {
		if r.Kind == kind && (dealerID == "" || r.DealerID == dealerID) {
			counts[r.Status]++
		}
	}
	var out []entity.StatusCount
	for s, n := range counts {
		out = append(out, entity.StatusCount{Status: s, Count: n})
	}
	return out, nil
}

func (m *mockRequestRepo) stored(id string) *entity.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[id].Clone()
}

type mockPlanRepo struct {
	plans   []entity.BudgetPlan
	listErr error
	calls   int
}

func (m *mockPlanRepo) Create(ctx context.Context, plan *entity.BudgetPlan) error {
	m.plans = append(m.plans, *plan)
	return nil
}

func (m *mockPlanRepo) ListActiveByDealer(ctx context.Context, dealerID string) ([]entity.BudgetPlan, error) {
	m.calls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []entity.BudgetPlan
	for _, p := range m.plans {
		if p.DealerID == dealerID && p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockTxManager struct {
	commitErr error
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.commitErr != nil {
		return m.commitErr
	}
	return fn(ctx)
}

type mockDispatcher struct {
	mu     sync.Mutex
	events []*event.Event
}

func (m *mockDispatcher) Subscribe(eventType event.Type, name string, handler dispatcher.Handler) {}

func (m *mockDispatcher) SubscribeAll(name string, handler dispatcher.Handler) {}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.DispatchAsync(ctx, evt)
	return nil
}

func (m *mockDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

func (m *mockDispatcher) Subscriptions(eventType event.Type) []dispatcher.Subscription {
	return nil
}

func (m *mockDispatcher) Close() error {
	return nil
}

func (m *mockDispatcher) types() []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]event.Type, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

type transitionObservation struct {
	kind     domainwf.Kind
	from, to domainwf.Status
	err      error
}

type mockRecorder struct {
	transitions []transitionObservation
	budgets     []budget.Result
}

func (m *mockRecorder) ObserveTransition(kind domainwf.Kind, from, to domainwf.Status, err error, elapsed time.Duration) {
	m.transitions = append(m.transitions, transitionObservation{kind: kind, from: from, to: to, err: err})
}

func (m *mockRecorder) ObserveBudgetCheck(res budget.Result) {
	m.budgets = append(m.budgets, res)
}

// stepClock returns a clock that advances one second per call
func stepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
