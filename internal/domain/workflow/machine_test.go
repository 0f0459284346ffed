package workflow

import (
	"errors"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateSubmitted, false},
		{StateUnderReview, false},
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
		{"submitted", StateSubmitted, true},
		{"rejected", StateRejected, true},
		{"unknown state", State("CANCELLED"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestFire_PermittedTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
		want    State
	}{
		{"submitted to under review", StateSubmitted, TriggerStartReview, StateUnderReview},
		{"direct approval", StateSubmitted, TriggerApprove, StateApproved},
		{"direct rejection", StateSubmitted, TriggerReject, StateRejected},
		{"approval after review", StateUnderReview, TriggerApprove, StateApproved},
		{"rejection after review", StateUnderReview, TriggerReject, StateRejected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Fire(tt.from, tt.trigger)
			if err != nil {
				t.Fatalf("Fire() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Fire() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFire_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		trigger Trigger
	}{
		{"review of reviewed claim", StateUnderReview, TriggerStartReview},
		{"approval of approved claim", StateApproved, TriggerApprove},
		{"rejection of approved claim", StateApproved, TriggerReject},
		{"review of rejected claim", StateRejected, TriggerStartReview},
		{"approval of rejected claim", StateRejected, TriggerApprove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Fire(tt.from, tt.trigger)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Fire() error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestFire_InvalidState(t *testing.T) {
	_, err := Fire(State("DRAFT"), TriggerApprove)
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("Fire() error = %v, want ErrInvalidState", err)
	}
}

func TestCanFire(t *testing.T) {
	if !CanFire(StateSubmitted, TriggerStartReview) {
		t.Error("CanFire(SUBMITTED, START_REVIEW) = false, want true")
	}
	if CanFire(StateApproved, TriggerReject) {
		t.Error("CanFire(APPROVED, REJECT) = true, want false")
	}
}

func TestPermittedTriggers(t *testing.T) {
	if got := PermittedTriggers(StateSubmitted); len(got) != 3 {
		t.Errorf("PermittedTriggers(SUBMITTED) = %v, want 3 triggers", got)
	}
	if got := PermittedTriggers(StateApproved); len(got) != 0 {
		t.Errorf("PermittedTriggers(APPROVED) = %v, want none", got)
	}
}
