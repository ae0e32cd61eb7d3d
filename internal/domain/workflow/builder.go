package workflow

import (
	"context"
	"fmt"
)

// Subject is what guards inspect when a transition is attempted
type Subject struct {
	Note           string
	DeliveredFiles int
}

// GuardFunc evaluates whether a transition may proceed. A non-nil error denies it.
type GuardFunc func(ctx context.Context, s Subject) error

// TableBuilder builds the transition table for one request kind
type TableBuilder interface {
	// Configure returns a status configuration for the given status
	Configure(status Status) StatusConfiguration

	// Terminal marks statuses from which no transition is permitted
	Terminal(statuses ...Status) TableBuilder

	// PermitGlobal adds an edge to the target from every non-terminal status at Build time.
	// Edges declared explicitly keep their own guard.
	PermitGlobal(to Status, guard GuardFunc) TableBuilder

	// Build freezes the configuration into a Table
	Build() *Table
}

// StatusConfiguration configures outgoing edges for a specific status
type StatusConfiguration interface {
	// Permit allows a transition to the target status
	Permit(to Status) StatusConfiguration

	// PermitIf allows a transition to the target status if the guard passes
	PermitIf(to Status, guard GuardFunc) StatusConfiguration
}

// edge represents a status transition with optional guard
type edge struct {
	to    Status
	guard GuardFunc
}

// statusConfig implements StatusConfiguration
type statusConfig struct {
	from  Status
	edges []edge
}

// tableBuilder implements TableBuilder
type tableBuilder struct {
	kind     Kind
	order    []Status
	configs  map[Status]*statusConfig
	terminal map[Status]bool
	global   []edge
}

// NewBuilder creates a new table builder for the given kind
func NewBuilder(kind Kind) TableBuilder {
	if !kind.IsValid() {
		panic(fmt.Sprintf("invalid kind: %s", kind))
	}
	return &tableBuilder{
		kind:     kind,
		configs:  make(map[Status]*statusConfig),
		terminal: make(map[Status]bool),
	}
}

// Configure returns a status configuration for the given status
func (b *tableBuilder) Configure(status Status) StatusConfiguration {
	if !status.IsValid() {
		panic(fmt.Sprintf("invalid status: %s", status))
	}

	config, exists := b.configs[status]
	if !exists {
		config = &statusConfig{from: status}
		b.configs[status] = config
		b.order = append(b.order, status)
	}

	return config
}

// Terminal marks statuses as terminal
func (b *tableBuilder) Terminal(statuses ...Status) TableBuilder {
	for _, s := range statuses {
		if !s.IsValid() {
			panic(fmt.Sprintf("invalid terminal status: %s", s))
		}
		if c, ok := b.configs[s]; ok && len(c.edges) > 0 {
			panic(fmt.Sprintf("terminal status %s has outgoing edges", s))
		}
		b.terminal[s] = true
	}
	return b
}

// PermitGlobal registers an edge added from every non-terminal status
func (b *tableBuilder) PermitGlobal(to Status, guard GuardFunc) TableBuilder {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid global target: %s", to))
	}
	for _, e := range b.global {
		if e.to == to {
			panic(fmt.Sprintf("duplicate global edge to %s", to))
		}
	}
	b.global = append(b.global, edge{to: to, guard: guard})
	return b
}

// Build creates an immutable Table from the configuration
func (b *tableBuilder) Build() *Table {
	b.expandGlobal()

	t := &Table{
		kind:     b.kind,
		edges:    make(map[Status][]edge, len(b.configs)),
		known:    make(map[Status]bool),
		terminal: make(map[Status]bool, len(b.terminal)),
		order:    append([]Status{}, b.order...),
	}

	for status, config := range b.configs {
		t.edges[status] = append([]edge{}, config.edges...)
		t.known[status] = true
		for _, e := range config.edges {
			t.known[e.to] = true
		}
	}
	for s := range b.terminal {
		t.terminal[s] = true
		t.known[s] = true
	}

	return t
}

// Permit allows a transition to the target status
func (c *statusConfig) Permit(to Status) StatusConfiguration {
	return c.PermitIf(to, nil)
}

// PermitIf allows a transition to the target status if the guard passes
func (c *statusConfig) PermitIf(to Status, guard GuardFunc) StatusConfiguration {
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target status: %s", to))
	}
	if to == c.from {
		panic(fmt.Sprintf("self edge on %s", to))
	}
	for _, e := range c.edges {
		if e.to == to {
			panic(fmt.Sprintf("duplicate edge %s -> %s", c.from, to))
		}
	}

	c.edges = append(c.edges, edge{to: to, guard: guard})
	return c
}

// expandGlobal turns every global edge into a concrete edge on each non-terminal
// status that does not already declare one
func (b *tableBuilder) expandGlobal() {
	if len(b.global) == 0 {
		return
	}

	sources := append([]Status{}, b.order...)
	for _, from := range b.order {
		for _, e := range b.configs[from].edges {
			sources = appendStatus(sources, e.to)
		}
	}

	for _, from := range sources {
		if b.terminal[from] {
			continue
		}
		for _, g := range b.global {
			if g.to == from {
				continue
			}
			config := b.Configure(from).(*statusConfig)
			if _, exists := config.find(g.to); exists {
				continue
			}
			config.edges = append(config.edges, g)
		}
	}
}

func (c *statusConfig) find(to Status) (edge, bool) {
	for _, e := range c.edges {
		if e.to == to {
			return e, true
		}
	}
	return edge{}, false
}

func appendStatus(list []Status, s Status) []Status {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
