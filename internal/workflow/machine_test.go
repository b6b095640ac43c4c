package workflow

import (
	"context"
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateDraft, false},
		{StatePending, false},
		{StateApproved, true},
		{StateRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"draft", StateDraft, true},
		{"rejected", StateRejected, true},
		{"unknown", State("archived"), false},
		{"empty", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_Permit(t *testing.T) {
	builder := NewBuilder().
		Permit(StateDraft, TriggerSubmit, StatePending)

	machine := builder.Build(StateDraft)

	if !machine.CanFire(TriggerSubmit) {
		t.Error("CanFire() should return true for permitted trigger")
	}

	if err := machine.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine.State() != StatePending {
		t.Errorf("State after Fire() = %v, want %v", machine.State(), StatePending)
	}
}

func TestBuilder_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Permit(StateDraft, TriggerSubmit, State("archived"))
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("archived"))
}

func TestMachine_Fire_InvalidTransition(t *testing.T) {
	builder := NewBuilder().
		Permit(StateDraft, TriggerSubmit, StatePending)

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerApprove)
	if err == nil {
		t.Fatal("Fire() should fail for invalid transition")
	}

	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}

	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestMachine_GuardFails(t *testing.T) {
	builder := NewBuilder().
		PermitIf(StateDraft, TriggerSubmit, StatePending, func(ctx context.Context) bool {
			return false
		})

	machine := builder.Build(StateDraft)

	err := machine.Fire(context.Background(), TriggerSubmit)
	if err == nil {
		t.Fatal("Fire() should fail when guard fails")
	}

	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}

	if machine.State() != StateDraft {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateDraft, machine.State())
	}
}

func TestMachine_Immutability(t *testing.T) {
	builder := NewBuilder().
		Permit(StateDraft, TriggerSubmit, StatePending)

	machine1 := builder.Build(StateDraft)
	machine2 := builder.Build(StateDraft)

	if err := machine1.Fire(context.Background(), TriggerSubmit); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine2.State() != StateDraft {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateDraft)
	}
}

func TestExpenseMachine_Lifecycle(t *testing.T) {
	machine, err := NewExpenseMachine("draft")
	if err != nil {
		t.Fatalf("NewExpenseMachine() failed: %v", err)
	}

	steps := []struct {
		trigger       Trigger
		expectedState State
	}{
		{TriggerSubmit, StatePending},
		{TriggerApprove, StateApproved},
	}

	for i, step := range steps {
		if err := machine.Fire(context.Background(), step.trigger); err != nil {
			t.Errorf("Step %d: Fire(%v) failed: %v", i, step.trigger, err)
		}
		if machine.State() != step.expectedState {
			t.Errorf("Step %d: State = %v, want %v", i, machine.State(), step.expectedState)
		}
	}

	if !machine.State().IsTerminal() {
		t.Error("Approved state should be terminal")
	}

	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("Terminal state should have 0 permitted triggers, got %d", len(triggers))
	}
}

func TestExpenseMachine_RejectRequiresPending(t *testing.T) {
	for _, status := range []string{"draft", "approved", "rejected"} {
		if CanTransition(status, TriggerReject) {
			t.Errorf("CanTransition(%q, reject) = true, want false", status)
		}
	}

	if !CanTransition("pending", TriggerReject) {
		t.Error("CanTransition(pending, reject) = false, want true")
	}
}

func TestExpenseMachine_ApproveIsMonotonic(t *testing.T) {
	machine, err := NewExpenseMachine("approved")
	if err != nil {
		t.Fatalf("NewExpenseMachine() failed: %v", err)
	}

	for _, trigger := range []Trigger{TriggerSubmit, TriggerApprove, TriggerReject, TriggerRevise} {
		if err := machine.Fire(context.Background(), trigger); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("Fire(%v) from approved = %v, want ErrInvalidTransition", trigger, err)
		}
	}
}

func TestExpenseMachine_RevisePullsBackToDraft(t *testing.T) {
	next, err := Transition(context.Background(), "pending", TriggerRevise)
	if err != nil {
		t.Fatalf("Transition() failed: %v", err)
	}
	if next != "draft" {
		t.Errorf("Transition(pending, revise) = %q, want draft", next)
	}
}

func TestNewExpenseMachine_UnknownStatus(t *testing.T) {
	if _, err := NewExpenseMachine("archived"); err == nil {
		t.Error("NewExpenseMachine() should reject unknown status")
	}
}
