package types

import "fmt"

// Status defines the lifecycle status of a workflow controller.
type Status string

const (
	StatusIdle      Status = "idle"      // Created, not yet running
	StatusRunning   Status = "running"   // Executing
	StatusCompleted Status = "completed" // Finished successfully (terminal)
	StatusFailed    Status = "failed"    // Finished with an error (terminal)
	StatusCancelled Status = "cancelled" // Cancelled cooperatively (terminal)
)

// validTransitions defines the legal status transitions. Terminal statuses
// have no outgoing transitions.
var validTransitions = map[Status][]Status{
	StatusIdle:    {StatusRunning, StatusCancelled},
	StatusRunning: {StatusCompleted, StatusFailed, StatusCancelled},
}

// CanTransition checks whether a status transition is legal.
func CanTransition(from, to Status) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s is a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// NewInvalidTransition builds the error for an illegal status transition.
func NewInvalidTransition(from, to Status) *Error {
	return &Error{
		Code:    ErrInvalidTransition,
		Message: fmt.Sprintf("invalid status transition: %s -> %s", from, to),
	}
}
