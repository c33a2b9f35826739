package core

// State tracks a FixPlan through the coordinator.
type State string

const (
	StatePending           State = "pending"
	StateRouted            State = "routed"
	StateUnroutable        State = "unroutable"
	StateExecuting         State = "executing"
	StateSucceeded         State = "succeeded"
	StatePartiallyAccepted State = "partially_accepted"
	StateExhausted         State = "exhausted"
	StateErrored           State = "errored"
)

// Terminal reports whether no further transition can happen.
func (s State) Terminal() bool {
	switch s {
	case StateUnroutable, StateSucceeded, StatePartiallyAccepted, StateExhausted, StateErrored:
		return true
	default:
		return false
	}
}

// Accepted is true for outcomes whose changes are kept.
func (s State) Accepted() bool {
	return s == StateSucceeded || s == StatePartiallyAccepted
}
