package dispatcher

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/for4for/dealer-workflow/internal/domain/event"
	"github.com/for4for/dealer-workflow/internal/domain/workflow"
)

type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func (m *mockLogger) ErrorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.errors)
}

type recordingObserver struct {
	mu      sync.Mutex
	results map[string]error
}

func (o *recordingObserver) ObserveHandler(_ event.Type, handler string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.results == nil {
		o.results = map[string]error{}
	}
	o.results[handler] = err
}

func newStatusEvent() *event.Event {
	return event.NewEvent(event.TypeStatusChanged, workflow.KindCampaign, "req-1", "dealer-1", nil)
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.Subscribe(event.TypeStatusChanged, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.Subscribe(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})
	d.SubscribeAll("audit", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "audit")
		return nil
	})
	d.Subscribe(event.TypeRequestCreated, "other", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "other")
		return nil
	})

	if err := d.Dispatch(context.Background(), newStatusEvent()); err != nil {
		t.Fatalf("dispatch failed: %v", err)
	}

	want := []string{"first", "second", "audit"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestDispatch_StopsOnError(t *testing.T) {
	d := NewDispatcher()
	boom := errors.New("boom")
	secondCalled := false

	d.Subscribe(event.TypeStatusChanged, "failing", func(ctx context.Context, evt *event.Event) error {
		return boom
	})
	d.Subscribe(event.TypeStatusChanged, "second", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), newStatusEvent())
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped boom, got %v", err)
	}
	if secondCalled {
		t.Error("handlers after a failure must not run")
	}
}

func TestDispatch_RecoversPanic(t *testing.T) {
	logger := &mockLogger{}
	observer := &recordingObserver{}
	d := NewDispatcher(WithLogger(logger), WithObserver(observer))

	d.Subscribe(event.TypeStatusChanged, "panicky", func(ctx context.Context, evt *event.Event) error {
		panic("nil map")
	})

	if err := d.Dispatch(context.Background(), newStatusEvent()); err == nil {
		t.Fatal("expected error from panicking handler")
	}
	if logger.ErrorCount() == 0 {
		t.Error("expected the panic to be logged")
	}
	if observer.results["panicky"] == nil {
		t.Error("observer should see the failure")
	}
}

func TestDispatchAsync_SurvivesCallerCancel(t *testing.T) {
	d := NewDispatcher()
	var ran atomic.Bool
	release := make(chan struct{})

	d.Subscribe(event.TypeStatusChanged, "slow", func(ctx context.Context, evt *event.Event) error {
		<-release
		if ctx.Err() != nil {
			return ctx.Err()
		}
		ran.Store(true)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	d.DispatchAsync(ctx, newStatusEvent())
	cancel()
	close(release)

	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if !ran.Load() {
		t.Error("async handler should outlive the caller's context")
	}
}

func TestDispatchAsync_HandlerTimeout(t *testing.T) {
	observer := &recordingObserver{}
	d := NewDispatcher(WithHandlerTimeout(10*time.Millisecond), WithObserver(observer))

	d.Subscribe(event.TypeStatusChanged, "stuck", func(ctx context.Context, evt *event.Event) error {
		<-ctx.Done()
		return ctx.Err()
	})

	d.DispatchAsync(context.Background(), newStatusEvent())
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	if !errors.Is(observer.results["stuck"], context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", observer.results["stuck"])
	}
}

func TestClose(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))

	if err := d.Close(); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if err := d.Close(); !errors.Is(err, ErrClosed) {
		t.Errorf("second close = %v, want ErrClosed", err)
	}
	if err := d.Dispatch(context.Background(), newStatusEvent()); !errors.Is(err, ErrClosed) {
		t.Errorf("dispatch after close = %v, want ErrClosed", err)
	}

	d.DispatchAsync(context.Background(), newStatusEvent())
	if logger.ErrorCount() != 1 {
		t.Errorf("async dispatch after close should log once, got %d", logger.ErrorCount())
	}
}

func TestDispatchAsync_ConcurrentWithClose(t *testing.T) {
	d := NewDispatcher()
	var handled atomic.Int64
	d.Subscribe(event.TypeStatusChanged, "count", func(ctx context.Context, evt *event.Event) error {
		time.Sleep(time.Millisecond)
		handled.Add(1)
		return nil
	})

	var senders sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 50; i++ {
		senders.Add(1)
		go func() {
			defer senders.Done()
			<-start
			for j := 0; j < 20; j++ {
				d.DispatchAsync(context.Background(), newStatusEvent())
			}
		}()
	}

	close(start)
	time.Sleep(2 * time.Millisecond)
	if err := d.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	atClose := handled.Load()

	senders.Wait()
	time.Sleep(5 * time.Millisecond)
	if got := handled.Load(); got != atClose {
		t.Errorf("handlers ran after Close returned: %d at close, %d later", atClose, got)
	}
}

func TestSubscriptions(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }

	d.Subscribe(event.TypeRequestRouted, "notify", noop)
	d.SubscribeAll("metrics", noop)

	subs := d.Subscriptions(event.TypeRequestRouted)
	if len(subs) != 2 {
		t.Fatalf("got %d subscriptions, want 2", len(subs))
	}
	if subs[0].Name != "notify" || subs[1].Name != "metrics" {
		t.Errorf("unexpected subscriptions: %+v", subs)
	}
	if got := d.Subscriptions(event.TypeNoteAdded); len(got) != 1 {
		t.Errorf("wildcard should apply to every type, got %d", len(got))
	}
}
