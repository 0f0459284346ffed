package workflow

import "fmt"

// transitions is the complete transition table of the claim lifecycle.
// Review is optional: approval and rejection are reachable directly from
// SUBMITTED as well as from UNDER_REVIEW.
var transitions = map[State]map[Trigger]State{
	StateSubmitted: {
		TriggerStartReview: StateUnderReview,
		TriggerApprove:     StateApproved,
		TriggerReject:      StateRejected,
	},
	StateUnderReview: {
		TriggerApprove: StateApproved,
		TriggerReject:  StateRejected,
	},
}

// CanFire returns true if the trigger is permitted in the given state
func CanFire(from State, trigger Trigger) bool {
	_, ok := transitions[from][trigger]
	return ok
}

// Fire returns the state reached by applying trigger in the given state.
// It returns ErrInvalidState for unknown states and ErrInvalidTransition
// when the trigger is not permitted.
func Fire(from State, trigger Trigger) (State, error) {
	if !from.IsValid() {
		return from, fmt.Errorf("%w: %s", ErrInvalidState, from)
	}

	to, ok := transitions[from][trigger]
	if !ok {
		return from, fmt.Errorf("%w: %s does not permit %s", ErrInvalidTransition, from, trigger)
	}

	return to, nil
}

// PermittedTriggers returns all triggers that can be fired in the given state
func PermittedTriggers(from State) []Trigger {
	var permitted []Trigger
	for trigger := range transitions[from] {
		permitted = append(permitted, trigger)
	}
	return permitted
}
