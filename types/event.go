package types

import "time"

// EventType discriminates workflow events.
type EventType string

const (
	// EventChildAttached is emitted by a parent when a child is attached.
	EventChildAttached EventType = "child_attached"
	// EventChildDetached is emitted by a parent when a child is detached.
	EventChildDetached EventType = "child_detached"
	// EventTreeUpdated is a generic structural change notification.
	EventTreeUpdated EventType = "tree_updated"
	// EventStatusChange is emitted on every lifecycle transition.
	EventStatusChange EventType = "status_change"
	// EventStepStart marks the beginning of a step inside a unit of work.
	EventStepStart EventType = "step_start"
	// EventStepComplete marks the end of a step inside a unit of work.
	EventStepComplete EventType = "step_complete"
	// EventTaskStart marks the launch of a concurrent task group.
	EventTaskStart EventType = "task_start"
	// EventTaskComplete marks the settlement of a concurrent task group.
	EventTaskComplete EventType = "task_complete"
	// EventError records an execution error on the originating node.
	EventError EventType = "error"
	// EventCustom carries caller-defined payloads.
	EventCustom EventType = "custom"
)

// Event is an immutable record of something that happened on a node.
// Events are append-only; they are never mutated after emission.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	// NodeID identifies the originating node.
	NodeID string `json:"node_id"`
	// ParentID and ChildID identify the affected link for structural events.
	ParentID string `json:"parent_id,omitempty"`
	ChildID  string `json:"child_id,omitempty"`
	// Name carries the step/task name or the custom event name.
	Name string `json:"name,omitempty"`
	// From and To carry the transition for status-change events.
	From Status `json:"from,omitempty"`
	To   Status `json:"to,omitempty"`
	// Error carries the message for error events.
	Error string `json:"error,omitempty"`
	// Data carries arbitrary tag-specific payload.
	Data map[string]any `json:"data,omitempty"`
}

// Structural reports whether the event changes tree topology. Structural
// events trigger an OnTreeChanged recomputation for every observer.
func (e Event) Structural() bool {
	switch e.Type {
	case EventChildAttached, EventChildDetached, EventTreeUpdated:
		return true
	}
	return false
}

// LogLevel classifies log entries accumulated on a node record.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// LogEntry is a single log line attributed to a node.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
}
