package dispatcher

import (
	"context"

	"github.com/for4for/dealer-workflow/internal/domain/event"
)

// Handler processes domain events
type Handler func(ctx context.Context, evt *event.Event) error

// Subscription describes a registered handler
type Subscription struct {
	Name      string
	EventType event.Type
	Handler   Handler
}

// Observer is told the outcome of every handler run
type Observer interface {
	ObserveHandler(eventType event.Type, handler string, err error)
}
