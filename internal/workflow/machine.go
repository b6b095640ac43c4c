package workflow

import (
	"context"
	"fmt"
)

// GuardFunc decides whether a configured transition may fire
type GuardFunc func(ctx context.Context) bool

// Machine tracks a current state and validates trigger firing against
// the configured transition table.
type Machine struct {
	current     State
	transitions map[State]map[Trigger][]transition
}

type transition struct {
	to    State
	guard GuardFunc
}

// Builder configures the transition table for lifecycle machines.
// Build may be called repeatedly; machines are independent.
type Builder struct {
	transitions map[State]map[Trigger][]transition
}

// NewBuilder creates an empty builder
func NewBuilder() *Builder {
	return &Builder{
		transitions: make(map[State]map[Trigger][]transition),
	}
}

// Permit allows trigger to move from state to target
func (b *Builder) Permit(from State, trigger Trigger, to State) *Builder {
	return b.PermitIf(from, trigger, to, nil)
}

// PermitIf allows trigger to move from state to target when the guard
// passes
func (b *Builder) PermitIf(from State, trigger Trigger, to State, guard GuardFunc) *Builder {
	if !from.IsValid() {
		panic(fmt.Sprintf("invalid source state: %s", from))
	}
	if !to.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", to))
	}

	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger][]transition)
	}
	b.transitions[from][trigger] = append(b.transitions[from][trigger], transition{to: to, guard: guard})
	return b
}

// Build creates a machine positioned at initial
func (b *Builder) Build(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}

	// Copy the table so later builder mutations cannot leak into
	// already-built machines.
	table := make(map[State]map[Trigger][]transition, len(b.transitions))
	for state, triggers := range b.transitions {
		copied := make(map[Trigger][]transition, len(triggers))
		for trigger, ts := range triggers {
			copied[trigger] = append([]transition(nil), ts...)
		}
		table[state] = copied
	}

	return &Machine{
		current:     initial,
		transitions: table,
	}
}

// State returns the current state
func (m *Machine) State() State {
	return m.current
}

// CanFire returns true if the trigger has at least one configured
// transition from the current state
func (m *Machine) CanFire(trigger Trigger) bool {
	triggers, ok := m.transitions[m.current]
	if !ok {
		return false
	}
	return len(triggers[trigger]) > 0
}

// Fire attempts the trigger, moving to the target state of the first
// transition whose guard passes. State is unchanged on failure.
func (m *Machine) Fire(ctx context.Context, trigger Trigger) error {
	triggers, ok := m.transitions[m.current]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	ts := triggers[trigger]
	if len(ts) == 0 {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}

	for _, t := range ts {
		if t.guard == nil || t.guard(ctx) {
			m.current = t.to
			return nil
		}
	}

	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, m.current)
}

// PermittedTriggers returns the triggers configured for the current
// state
func (m *Machine) PermittedTriggers() []Trigger {
	triggers, ok := m.transitions[m.current]
	if !ok {
		return nil
	}

	out := make([]Trigger, 0, len(triggers))
	for trigger := range triggers {
		out = append(out, trigger)
	}
	return out
}
