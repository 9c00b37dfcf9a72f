package audit

import (
	"context"
	"log"
	"time"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/correlation"
)

// Recorder stamps events with the correlation id and timestamp and
// forwards them to a Sink. Recording never fails the business operation
// being audited: a sink error is diverted to the fallback logger and
// swallowed, so callers cannot be aborted by their own audit trail.
type Recorder struct {
	sink Sink
	// fallback receives sink failures. Defaults to the process log
	// on stderr (stdout belongs to the MCP transport).
	fallback func(format string, args ...any)
	now      func() time.Time
}

// NewRecorder creates a Recorder over the given sink.
func NewRecorder(sink Sink) *Recorder {
	return &Recorder{
		sink:     sink,
		fallback: log.Printf,
		now:      time.Now,
	}
}

// Record stamps and appends an event. The correlation id is read from
// ctx; events recorded outside an operation get an empty id rather than
// being dropped, so the trail still shows the emission happened.
func (r *Recorder) Record(ctx context.Context, e Event) {
	if id, ok := correlation.ID(ctx); ok {
		e.CorrelationID = id
	}
	e.Timestamp = r.now().UTC()

	if err := r.sink.Append(ctx, e); err != nil {
		r.fallback("WARNING: audit write failed (op=%s result=%s correlation=%s): %v",
			e.Operation, e.Result, e.CorrelationID, err)
	}
}
