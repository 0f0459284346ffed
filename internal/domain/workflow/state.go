package workflow

// State represents a claim state in the review lifecycle
type State string

const (
	StateSubmitted   State = "SUBMITTED"
	StateUnderReview State = "UNDER_REVIEW"
	StateApproved    State = "APPROVED"
	StateRejected    State = "REJECTED"
)

var validStates = map[State]bool{
	StateSubmitted:   true,
	StateUnderReview: true,
	StateApproved:    true,
	StateRejected:    true,
}

var terminalStates = map[State]bool{
	StateApproved: true,
	StateRejected: true,
}

// IsTerminal returns true if the state is a terminal state (no further transitions allowed)
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsValid returns true if the state is a valid claim state
func (s State) IsValid() bool {
	return validStates[s]
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}
