package workflow

import "fmt"

// Edge is a single permitted transition
type Edge struct {
	From Status
	To   Status
}

// Table is the frozen transition table of one request kind
type Table struct {
	kind     Kind
	order    []Status
	edges    map[Status][]edge
	known    map[Status]bool
	terminal map[Status]bool
}

// Kind returns the request kind the table governs
func (t *Table) Kind() Kind {
	return t.kind
}

// Knows reports whether the status belongs to this kind's pipeline
func (t *Table) Knows(s Status) bool {
	return t.known[s]
}

// IsTerminal reports whether no transition leaves the status
func (t *Table) IsTerminal(s Status) bool {
	return t.terminal[s]
}

// HasEdge reports whether from -> to is a direct edge
func (t *Table) HasEdge(from, to Status) bool {
	_, ok := t.find(from, to)
	return ok
}

// Successors returns the direct successors of a status in declaration order
func (t *Table) Successors(from Status) []Status {
	edges := t.edges[from]
	out := make([]Status, 0, len(edges))
	for _, e := range edges {
		out = append(out, e.to)
	}
	return out
}

// Edges returns every edge of the table
func (t *Table) Edges() []Edge {
	var out []Edge
	for _, from := range t.order {
		for _, e := range t.edges[from] {
			out = append(out, Edge{From: from, To: e.to})
		}
	}
	return out
}

// Statuses returns every status of the pipeline
func (t *Table) Statuses() []Status {
	out := make([]Status, 0, len(t.known))
	for _, s := range allStatuses {
		if t.known[s] {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that to is reachable from from in one step.
// Guards are not evaluated here.
func (t *Table) Validate(from, to Status) error {
	if !t.known[from] {
		return fmt.Errorf("%w: status %s is not part of the %s pipeline", ErrInvalidInput, from, t.kind)
	}
	if !t.known[to] {
		return fmt.Errorf("%w: status %s is not part of the %s pipeline", ErrInvalidInput, to, t.kind)
	}
	if t.terminal[from] {
		return fmt.Errorf("%w: %s %s", ErrTerminalState, t.kind, from)
	}
	if !t.HasEdge(from, to) {
		return fmt.Errorf("%w: %s %s -> %s", ErrInvalidTransition, t.kind, from, to)
	}
	return nil
}

// Machine returns a state machine positioned at current
func (t *Table) Machine(current Status) Machine {
	if !t.known[current] {
		panic(fmt.Sprintf("status %s is not part of the %s pipeline", current, t.kind))
	}
	return &stateMachine{table: t, current: current}
}

func (t *Table) find(from, to Status) (edge, bool) {
	for _, e := range t.edges[from] {
		if e.to == to {
			return e, true
		}
	}
	return edge{}, false
}

var allStatuses = []Status{
	StatusDraft,
	StatusImagePending,
	StatusDealerApprovalPending,
	StatusBrandApprovalPending,
	StatusPendingApproval,
	StatusEvaluation,
	StatusApproved,
	StatusLive,
	StatusRejected,
	StatusCompleted,
}
