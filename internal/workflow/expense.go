package workflow

import (
	"context"
	"fmt"
)

// expenseBuilder holds the expense lifecycle transition table:
// draft -> pending -> {approved, rejected}. Revise keeps a pending
// report editable by pulling it back to draft.
var expenseBuilder = NewBuilder().
	Permit(StateDraft, TriggerSubmit, StatePending).
	Permit(StatePending, TriggerApprove, StateApproved).
	Permit(StatePending, TriggerReject, StateRejected).
	Permit(StatePending, TriggerRevise, StateDraft)

// NewExpenseMachine positions an expense lifecycle machine at the
// given status. Unknown statuses are rejected so a corrupted row
// cannot silently re-enter the workflow.
func NewExpenseMachine(status string) (*Machine, error) {
	state := State(status)
	if !state.IsValid() {
		return nil, fmt.Errorf("unknown expense status: %q", status)
	}
	return expenseBuilder.Build(state), nil
}

// CanTransition reports whether an expense in the given status may
// fire the trigger.
func CanTransition(status string, trigger Trigger) bool {
	machine, err := NewExpenseMachine(status)
	if err != nil {
		return false
	}
	return machine.CanFire(trigger)
}

// Transition fires the trigger for an expense in the given status and
// returns the resulting status.
func Transition(ctx context.Context, status string, trigger Trigger) (string, error) {
	machine, err := NewExpenseMachine(status)
	if err != nil {
		return "", err
	}
	if err := machine.Fire(ctx, trigger); err != nil {
		return "", err
	}
	return machine.State().String(), nil
}
