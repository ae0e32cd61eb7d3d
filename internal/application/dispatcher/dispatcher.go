package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/for4for/dealer-workflow/internal/domain/event"
)

// ErrClosed is returned once Close has been called
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher fans committed request events out to side-effect handlers
type Dispatcher interface {
	// Subscribe registers a named handler for an event type
	Subscribe(eventType event.Type, name string, handler Handler)

	// SubscribeAll registers a handler for every event type
	SubscribeAll(name string, handler Handler)

	// Dispatch runs handlers in registration order and returns the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs handlers in background goroutines detached from ctx cancellation
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Subscriptions lists the handlers that receive eventType
	Subscriptions(eventType event.Type) []Subscription

	// Close stops accepting events and waits for running handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]Subscription
	wildcard []Subscription

	logger   Logger
	observer Observer
	timeout  time.Duration

	// lifecycle orders wg.Add against Close so Wait never races a new Add
	lifecycle sync.Mutex
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// WithObserver reports handler outcomes, e.g. to metrics
func WithObserver(o Observer) Option {
	return func(d *eventDispatcher) {
		d.observer = o
	}
}

// WithHandlerTimeout bounds each async handler run. Zero means no bound.
func WithHandlerTimeout(timeout time.Duration) Option {
	return func(d *eventDispatcher) {
		d.timeout = timeout
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]Subscription),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.handlers[eventType] = append(d.handlers[eventType], Subscription{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})
	d.mu.Unlock()

	d.info("Handler registered", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) SubscribeAll(name string, handler Handler) {
	d.mu.Lock()
	d.wildcard = append(d.wildcard, Subscription{Name: name, Handler: handler})
	d.mu.Unlock()

	d.info("Handler registered", "event_type", "*", "handler_name", name)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	subs := d.Subscriptions(evt.Type)
	d.info("Dispatching event", "event_type", evt.Type, "event_id", evt.ID, "request_id", evt.RequestID, "handler_count", len(subs))

	for _, sub := range subs {
		if err := d.run(ctx, evt, sub); err != nil {
			return fmt.Errorf("handler %s failed: %w", sub.Name, err)
		}
	}

	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	subs := d.Subscriptions(evt.Type)

	d.lifecycle.Lock()
	if d.closed.Load() {
		d.lifecycle.Unlock()
		d.error("Cannot dispatch async event, dispatcher is closed", "event_type", evt.Type, "event_id", evt.ID)
		return
	}
	if len(subs) == 0 {
		d.lifecycle.Unlock()
		return
	}
	d.wg.Add(len(subs))
	d.lifecycle.Unlock()

	d.info("Dispatching event asynchronously", "event_type", evt.Type, "event_id", evt.ID, "request_id", evt.RequestID, "handler_count", len(subs))

	// the request that produced the event usually finishes before its handlers do
	base := context.WithoutCancel(ctx)

	for _, sub := range subs {
		go func(sub Subscription) {
			defer d.wg.Done()

			hctx := base
			if d.timeout > 0 {
				var cancel context.CancelFunc
				hctx, cancel = context.WithTimeout(base, d.timeout)
				defer cancel()
			}
			_ = d.run(hctx, evt, sub)
		}(sub)
	}
}

func (d *eventDispatcher) Subscriptions(eventType event.Type) []Subscription {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Subscription, 0, len(d.handlers[eventType])+len(d.wildcard))
	out = append(out, d.handlers[eventType]...)
	out = append(out, d.wildcard...)
	return out
}

func (d *eventDispatcher) Close() error {
	d.lifecycle.Lock()
	swapped := d.closed.CompareAndSwap(false, true)
	d.lifecycle.Unlock()
	if !swapped {
		return ErrClosed
	}

	d.info("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.info("Dispatcher closed")

	return nil
}

// run executes one handler with panic recovery and reports the outcome
func (d *eventDispatcher) run(ctx context.Context, evt *event.Event, sub Subscription) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
		if err != nil {
			d.error("Handler error",
				"event_type", evt.Type,
				"event_id", evt.ID,
				"handler_name", sub.Name,
				"error", err,
			)
		}
		if d.observer != nil {
			d.observer.ObserveHandler(evt.Type, sub.Name, err)
		}
	}()

	return sub.Handler(ctx, evt)
}

func (d *eventDispatcher) info(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) error(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
