package workflow

import (
	"context"
	"encoding/json"
	"time"

	"github.com/for4for/dealer-workflow/internal/application/port"
	"github.com/for4for/dealer-workflow/internal/domain/budget"
	"github.com/for4for/dealer-workflow/internal/domain/entity"
	"github.com/for4for/dealer-workflow/internal/domain/timeline"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Facade is the single entry point into the request lifecycle.
// Every operation takes the acting identity explicitly; nothing is read from ambient state.
type Facade interface {
	// Submit creates a request. Unless SaveAsDraft is set the draft is submitted in the
	// same write, so a failed budget gate leaves nothing behind.
	Submit(ctx context.Context, actor entity.Actor, cmd SubmitCommand) (*Outcome, error)

	// Transition moves a request to cmd.To (or the status cmd.Action resolves to)
	Transition(ctx context.Context, actor entity.Actor, cmd TransitionCommand) (*Outcome, error)

	// Route hands a creative request to another party
	Route(ctx context.Context, actor entity.Actor, cmd RouteCommand) (*Outcome, error)

	// Comment appends a note without changing status
	Comment(ctx context.Context, actor entity.Actor, kind domainwf.Kind, id, note string) (*Outcome, error)

	// Edit replaces the editable fields of a request
	Edit(ctx context.Context, actor entity.Actor, cmd EditCommand) (*Outcome, error)

	// CheckBudget runs the budget validator against the dealer's current plans
	CheckBudget(ctx context.Context, actor entity.Actor, q budget.Query) (budget.Result, error)

	// GetTimeline returns the request with its freshly built timeline
	GetTimeline(ctx context.Context, actor entity.Actor, kind domainwf.Kind, id string) (*Outcome, error)

	// List returns the requests the actor may see
	List(ctx context.Context, actor entity.Actor, filter port.RequestFilter) ([]*entity.Request, error)

	// CountByStatus summarizes requests of a kind per status
	CountByStatus(ctx context.Context, actor entity.Actor, kind domainwf.Kind) ([]entity.StatusCount, error)
}

// SubmitCommand describes a new request
type SubmitCommand struct {
	Kind        domainwf.Kind
	DealerID    string
	Title       string
	Payload     json.RawMessage
	Campaign    *entity.CampaignTerms
	Note        string
	SaveAsDraft bool
}

// TransitionCommand moves an existing request. Exactly one of To and Action is expected;
// To wins when both are set.
type TransitionCommand struct {
	Kind   domainwf.Kind
	ID     string
	To     domainwf.Status
	Action domainwf.Trigger
	Note   string
}

// RouteCommand hands a creative to Assignee
type RouteCommand struct {
	Kind     domainwf.Kind
	ID       string
	Assignee entity.Assignee
	Note     string
}

// EditCommand replaces editable fields. Nil fields are left as they are.
type EditCommand struct {
	Kind     domainwf.Kind
	ID       string
	Title    *string
	Payload  json.RawMessage
	Campaign *entity.CampaignTerms
}

// Outcome is what a successful operation returns: the updated request, its fresh
// timeline, and the budget verdict when the budget gate ran.
type Outcome struct {
	Request  *entity.Request  `json:"request"`
	Timeline []timeline.Entry `json:"timeline"`
	Budget   *budget.Result   `json:"budget,omitempty"`
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Recorder observes workflow outcomes, typically for metrics
type Recorder interface {
	ObserveTransition(kind domainwf.Kind, from, to domainwf.Status, err error, elapsed time.Duration)
	ObserveBudgetCheck(res budget.Result)
}
