package audit

import (
	"context"
	"sync"
)

// Sink receives audit events for durable storage. A sink only appends;
// it never mutates or removes what it has stored.
type Sink interface {
	Append(ctx context.Context, e Event) error
}

// MemorySink stores events in memory, for tests and ephemeral runs.
type MemorySink struct {
	mu     sync.Mutex
	events []Event
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(_ context.Context, e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return nil
}

// Events returns a copy of all stored events in append order.
func (s *MemorySink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// ByCorrelation returns the stored events carrying the given
// correlation id, in append order.
func (s *MemorySink) ByCorrelation(id string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Event
	for _, e := range s.events {
		if e.CorrelationID == id {
			out = append(out, e)
		}
	}
	return out
}
