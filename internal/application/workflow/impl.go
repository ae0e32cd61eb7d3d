package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/for4for/dealer-workflow/internal/application/dispatcher"
	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/event"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// facadeImpl is the concrete implementation of Facade
type facadeImpl struct {
	requests  port.RequestRepository
	plans     port.BudgetPlanRepository
	txManager port.TransactionManager

	dispatcher dispatcher.Dispatcher
	recorder   Recorder
	logger     Logger
	timeline   *timeline.Builder
	now        func() time.Time
	newID      func() string
}

// Option configures the facade
type Option func(*facadeImpl)

// WithDispatcher sets the event dispatcher for emitting events
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(f *facadeImpl) {
		f.dispatcher = d
	}
}

// WithRecorder reports transition and budget outcomes
func WithRecorder(r Recorder) Option {
	return func(f *facadeImpl) {
		f.recorder = r
	}
}

// WithLogger sets a logger for the facade
func WithLogger(l Logger) Option {
	return func(f *facadeImpl) {
		f.logger = l
	}
}

// WithTimelineBuilder replaces the default UTC timeline builder
func WithTimelineBuilder(b *timeline.Builder) Option {
	return func(f *facadeImpl) {
		if b != nil {
			f.timeline = b
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(f *facadeImpl) {
		f.now = now
	}
}

// NewFacade creates the workflow facade
func NewFacade(
	requests port.RequestRepository,
	plans port.BudgetPlanRepository,
	txManager port.TransactionManager,
	opts ...Option,
) Facade {
	f := &facadeImpl{
		requests:  requests,
		plans:     plans,
		txManager: txManager,
		timeline:  timeline.NewBuilder(),
		now:       time.Now,
		newID:     uuid.NewString,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// load fetches a request after checking the kind is known
func (f *facadeImpl) load(ctx context.Context, kind domainwf.Kind, id string) (*entity.Request, *domainwf.Table, error) {
	table, err := domainwf.TableFor(kind)
	if err != nil {
		return nil, nil, err
	}
	if id == "" {
		return nil, nil, fmt.Errorf("%w: request id is required", domainwf.ErrInvalidInput)
	}

	r, err := f.requests.Get(ctx, kind, id)
	if err != nil {
		if !errors.Is(err, domainwf.ErrNotFound) {
			f.logError("Failed to get request", "error", err, "kind", kind, "request_id", id)
		}
		return nil, nil, err
	}
	return r, table, nil
}

// timestamp returns a time strictly after prev
func (f *facadeImpl) timestamp(prev time.Time) time.Time {
	now := f.now().UTC()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

func (f *facadeImpl) newEvent(r *entity.Request, action entity.Action, actor entity.Actor, details entity.EventDetails, at time.Time) entity.AuditEvent {
	return entity.AuditEvent{
		ID:         f.newID(),
		RequestID:  r.ID,
		Action:     action,
		ActorName:  actor.Name,
		Details:    details,
		OccurredAt: at,
	}
}

// appendLocal mirrors what the store did so the returned request needs no re-read
func appendLocal(r *entity.Request, events ...entity.AuditEvent) {
	var seq int64
	if n := len(r.AuditLog); n > 0 {
		seq = r.AuditLog[n-1].Seq
	}
	for _, e := range events {
		seq++
		e.Seq = seq
		r.AuditLog = append(r.AuditLog, e)
	}
}

func (f *facadeImpl) write(ctx context.Context, r *entity.Request, patch port.RequestPatch) error {
	err := f.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return f.requests.Update(txCtx, r.Kind, r.ID, patch)
	})
	if err != nil && !errors.Is(err, domainwf.ErrConflict) {
		f.logError("Failed to update request", "error", err, "kind", r.Kind, "request_id", r.ID)
	}
	return err
}

func (f *facadeImpl) outcome(r *entity.Request) *Outcome {
	return &Outcome{Request: r, Timeline: f.timeline.Build(r)}
}

func (f *facadeImpl) publish(ctx context.Context, typ event.Type, r *entity.Request, actor entity.Actor, payload map[string]interface{}) {
	if f.dispatcher == nil {
		return
	}
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload[event.KeyActorName] = actor.Name
	payload[event.KeyActorRole] = string(actor.Role)
	payload[event.KeyTitle] = r.Title
	f.dispatcher.DispatchAsync(ctx, event.NewEvent(typ, r.Kind, r.ID, r.DealerID, payload))
}

func (f *facadeImpl) logInfo(msg string, kv ...interface{}) {
	if f.logger != nil {
		f.logger.Info(msg, kv...)
	}
}

func (f *facadeImpl) logError(msg string, kv ...interface{}) {
	if f.logger != nil {
		f.logger.Error(msg, kv...)
	}
}

// sentinels in the order a failed transition is checked
var sentinels = []error{
	domainwf.ErrTerminalState,
	domainwf.ErrInvalidTransition,
	domainwf.ErrForbidden,
	domainwf.ErrMissingRequiredNote,
	domainwf.ErrMissingDeliverables,
	domainwf.ErrInsufficientBudget,
	domainwf.ErrConflict,
}

// transitionError attaches actor and request context to err. Errors that already
// carry it, and errors that match no sentinel, are returned unchanged.
func transitionError(r *entity.Request, actor entity.Actor, to domainwf.Status, err error) error {
	var te *domainwf.TransitionError
	if errors.As(err, &te) {
		return err
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return &domainwf.TransitionError{
				Kind:      r.Kind,
				RequestID: r.ID,
				Role:      string(actor.Role),
				From:      r.Status,
				To:        to,
				Err:       s,
			}
		}
	}
	return err
}
