package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/for4for/dealer-workflow/internal/application/dispatcher"
	"github.com/for4for/dealer-workflow/internal/application/workflow"
	"github.com/for4for/dealer-workflow/internal/domain/budget"
	"github.com/for4for/dealer-workflow/internal/domain/event"
	domainwf "github.com/for4for/dealer-workflow/internal/domain/workflow"
)

// Metrics provides observability for the request workflow.
// Tracks transition outcomes, budget verdicts and notification handler runs.
type Metrics struct {
	Transitions        *prometheus.CounterVec
	TransitionDuration *prometheus.HistogramVec
	BudgetChecks       *prometheus.CounterVec
	HandlerRuns        *prometheus.CounterVec
}

// New registers all workflow metrics with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_request_transitions_total",
			Help: "Request status transitions by kind, target status and outcome",
		}, []string{"kind", "from", "to", "outcome"}),
		TransitionDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "portal_request_transition_duration_seconds",
			Help:    "Duration of transition requests including the store write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
		BudgetChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_budget_checks_total",
			Help: "Campaign budget checks by verdict",
		}, []string{"verdict"}),
		HandlerRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "portal_event_handler_runs_total",
			Help: "Event handler runs by event type, handler and outcome",
		}, []string{"event_type", "handler", "outcome"}),
	}
}

// outcomes maps refusal sentinels to label values, checked in order
var outcomes = []struct {
	err   error
	label string
}{
	{domainwf.ErrForbidden, "forbidden"},
	{domainwf.ErrTerminalState, "terminal_state"},
	{domainwf.ErrInvalidTransition, "invalid_transition"},
	{domainwf.ErrMissingRequiredNote, "missing_note"},
	{domainwf.ErrMissingDeliverables, "missing_deliverables"},
	{domainwf.ErrInsufficientBudget, "insufficient_budget"},
	{domainwf.ErrConflict, "conflict"},
	{domainwf.ErrNotFound, "not_found"},
	{domainwf.ErrInvalidInput, "invalid_input"},
}

// Outcome is the label value recorded for err
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	for _, o := range outcomes {
		if errors.Is(err, o.err) {
			return o.label
		}
	}
	return "error"
}

// ObserveTransition implements workflow.Recorder
func (m *Metrics) ObserveTransition(kind domainwf.Kind, from, to domainwf.Status, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(string(kind), string(from), string(to), Outcome(err)).Inc()
	m.TransitionDuration.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

// ObserveBudgetCheck implements workflow.Recorder
func (m *Metrics) ObserveBudgetCheck(res budget.Result) {
	if m == nil {
		return
	}
	verdict := "blocked"
	switch {
	case res.Valid && res.Warning:
		verdict = "warning"
	case res.Valid:
		verdict = "ok"
	case !res.HasPlan:
		verdict = "no_plan"
	}
	m.BudgetChecks.WithLabelValues(verdict).Inc()
}

// ObserveHandler implements dispatcher.Observer
func (m *Metrics) ObserveHandler(eventType event.Type, handler string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.HandlerRuns.WithLabelValues(eventType.String(), handler, outcome).Inc()
}

// Verify interface compliance
var (
	_ workflow.Recorder   = (*Metrics)(nil)
	_ dispatcher.Observer = (*Metrics)(nil)
)
