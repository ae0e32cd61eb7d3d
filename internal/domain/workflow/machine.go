package workflow

import (
	"context"
	"fmt"
)

// Machine tracks the status of one request and validates transitions against its table
type Machine interface {
	// State returns the current status
	State() Status

	// Fire moves to the target status if the edge exists and its guard passes
	Fire(ctx context.Context, to Status, s Subject) error

	// PermittedTargets returns all statuses reachable in one step
	PermittedTargets() []Status
}

// stateMachine implements Machine
type stateMachine struct {
	table   *Table
	current Status
}

// State returns the current status
func (m *stateMachine) State() Status {
	return m.current
}

// Fire attempts the transition, leaving the machine untouched on failure
func (m *stateMachine) Fire(ctx context.Context, to Status, s Subject) error {
	if err := m.table.Validate(m.current, to); err != nil {
		return err
	}

	e, _ := m.table.find(m.current, to)
	if e.guard != nil {
		if err := e.guard(ctx, s); err != nil {
			return fmt.Errorf("%s %s -> %s: %w", m.table.kind, m.current, to, err)
		}
	}

	m.current = to
	return nil
}

// PermittedTargets returns all statuses reachable in one step
func (m *stateMachine) PermittedTargets() []Status {
	return m.table.Successors(m.current)
}
