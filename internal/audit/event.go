// Package audit records the lifecycle of every guarded mutation as an
// append-only trail.
//
// Each operation invocation produces exactly one "initiated" event
// followed by exactly one terminal event ("success" or "error"), all
// sharing the operation's correlation id. Events are immutable once
// emitted; sinks only ever append.
package audit

import "time"

// Result is the lifecycle stage an event records.
type Result string

const (
	ResultInitiated Result = "initiated"
	ResultSuccess   Result = "success"
	ResultError     Result = "error"
)

// Details identifies the subject of an audited operation and, on the
// error path, carries the failure message.
type Details struct {
	SubjectType string `json:"subject_type"`
	SubjectID   string `json:"subject_id,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Event is a single audit record. CorrelationID and Timestamp are
// stamped by the Recorder; callers fill in the rest.
type Event struct {
	Operation     string    `json:"operation"`
	Agent         string    `json:"agent"`
	Result        Result    `json:"result"`
	Details       Details   `json:"details"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
