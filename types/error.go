package types

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unified error code across the engine.
type ErrorCode string

// Structural error codes (tree mutation preconditions).
const (
	ErrStructural        ErrorCode = "STRUCTURAL"
	ErrCycleDetected     ErrorCode = "CYCLE_DETECTED"
	ErrInvalidTransition ErrorCode = "INVALID_TRANSITION"
	ErrNotChildUnit      ErrorCode = "NOT_CHILD_UNIT"
)

// Cache and aggregation error codes.
const (
	ErrSerialization ErrorCode = "SERIALIZATION"
	ErrAggregate     ErrorCode = "AGGREGATE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	NodeID  string    `json:"node_id,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewStructural creates a structural error with a formatted message.
func NewStructural(format string, args ...any) *Error {
	return &Error{Code: ErrStructural, Message: fmt.Sprintf(format, args...)}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithNode records the identity of the node the error originated from.
func (e *Error) WithNode(id string) *Error {
	e.NodeID = id
	return e
}

// GetErrorCode extracts the error code from an error, unwrapping as needed.
// Returns the empty code when err is not a *Error.
func GetErrorCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsStructural reports whether err is a structural tree error, including
// cycle detection and invalid attach/detach preconditions.
func IsStructural(err error) bool {
	switch GetErrorCode(err) {
	case ErrStructural, ErrCycleDetected, ErrInvalidTransition, ErrNotChildUnit:
		return true
	}
	return false
}

// IsSerialization reports whether err is a cache-key canonicalization error.
func IsSerialization(err error) bool {
	return GetErrorCode(err) == ErrSerialization
}

// EnrichedError is returned by the instrumentation boundary when a unit of
// work fails. It carries the diagnostic payload explicitly instead of
// re-throwing an enriched exception, so propagation stays visible in
// signatures.
type EnrichedError struct {
	WorkflowID string      `json:"workflow_id"`
	Name       string      `json:"name"`
	Snapshot   *NodeRecord `json:"snapshot,omitempty"`
	Logs       []LogEntry  `json:"logs,omitempty"`
	Err        error       `json:"-"`
}

// Error implements the error interface.
func (e *EnrichedError) Error() string {
	return fmt.Sprintf("workflow %s (%s) failed: %v", e.Name, e.WorkflowID, e.Err)
}

// Unwrap returns the original execution error.
func (e *EnrichedError) Unwrap() error {
	return e.Err
}
