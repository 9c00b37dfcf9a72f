// Package guard composes lock acquisition, correlation scoping, and
// lifecycle auditing around a single mutating operation.
//
// Every entry point that mutates a shared resource runs through Do,
// which guarantees at most one concurrent mutator per resource and a
// complete audit trail — exactly one "initiated" event and exactly one
// terminal event per invocation, sharing one correlation id — no matter
// how the operation ends.
package guard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/audit"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/correlation"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/locking"
)

// ErrResourceLocked is returned when the resource is held by another
// operation. It is an expected, caller-recoverable condition (retry
// later, or report a conflict), distinct from a genuine execution fault.
var ErrResourceLocked = errors.New("resource is locked")

// LockedError carries the contended resource and, when known, the
// current holder. It wraps ErrResourceLocked for errors.Is checks.
type LockedError struct {
	ResourceType string
	ResourceID   string
	Holder       string
}

func (e *LockedError) Error() string {
	if e.Holder != "" {
		return fmt.Sprintf("%s %q is locked by %s", e.ResourceType, e.ResourceID, e.Holder)
	}
	return fmt.Sprintf("%s %q is locked", e.ResourceType, e.ResourceID)
}

func (e *LockedError) Unwrap() error { return ErrResourceLocked }

// Operation names the mutation being guarded and the resource it locks.
type Operation struct {
	// Name is the audit operation name, e.g. "list_update".
	Name string
	// ResourceType and ResourceID key the lock.
	ResourceType string
	ResourceID   string
	// SubjectID is the audited subject; usually the resource id, but a
	// finer-grained id (e.g. an item inside the locked list) when the
	// mutation targets a child of the locked resource.
	SubjectID string
	// Holder identifies the session acquiring the lock and the agent in
	// the audit trail.
	Holder string
}

// Guard wires a lock store and an audit recorder around mutations.
// Construct one per server and share it across tools.
type Guard struct {
	locks    locking.Store
	recorder *audit.Recorder
	// executeTimeout bounds the wrapped operation when positive.
	executeTimeout time.Duration
}

// Option configures a Guard.
type Option func(*Guard)

// WithExecuteTimeout bounds each guarded execution. A timed-out
// operation takes the ordinary error path: audited, lock released,
// context.DeadlineExceeded surfaced to the caller.
func WithExecuteTimeout(d time.Duration) Option {
	return func(g *Guard) { g.executeTimeout = d }
}

// New creates a Guard over the given lock store and recorder.
func New(locks locking.Store, recorder *audit.Recorder, opts ...Option) *Guard {
	g := &Guard{locks: locks, recorder: recorder}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Do runs execute under the full mutation discipline:
//
//  1. Bind a fresh correlation id for the operation's dynamic extent.
//  2. Record an "initiated" audit event.
//  3. Acquire the resource lock; on contention, record a terminal
//     "error" event and return a LockedError without running execute.
//  4. Run execute with the correlation-bound (and, if configured,
//     deadline-bound) context.
//  5. Record the terminal event and release the lock on every exit
//     path — success, error, cancellation, or panic.
//
// Execution errors are returned unchanged; Do observes and audits them
// but never wraps or replaces them.
func Do[T any](ctx context.Context, g *Guard, op Operation, execute func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx = correlation.NewContext(ctx)

	g.recorder.Record(ctx, audit.Event{
		Operation: op.Name,
		Agent:     op.Holder,
		Result:    audit.ResultInitiated,
		Details:   audit.Details{SubjectType: op.ResourceType, SubjectID: op.subject()},
	})

	acquired, err := g.locks.Acquire(ctx, op.ResourceType, op.ResourceID, op.Holder)
	if err != nil {
		g.recordTerminal(ctx, op, err)
		return zero, fmt.Errorf("acquiring lock for %s %q: %w", op.ResourceType, op.ResourceID, err)
	}
	if !acquired {
		lockErr := &LockedError{ResourceType: op.ResourceType, ResourceID: op.ResourceID}
		// A rejected mutation attempt is part of the trail too: without
		// this event the "initiated" record would dangle unterminated.
		g.recordTerminal(ctx, op, lockErr)
		return zero, lockErr
	}

	// Release is unconditional from here on — deferred so that error
	// returns and panics inside execute cannot orphan the lock. A failed
	// release goes to the process log, not the audit trail: the
	// operation already has its terminal event, and the trail carries
	// exactly one initiated plus one terminal event per invocation.
	defer func() {
		if relErr := g.locks.Release(context.WithoutCancel(ctx), op.ResourceType, op.ResourceID, op.Holder); relErr != nil {
			log.Printf("WARNING: lock release failed (op=%s %s %q held by %s): %v",
				op.Name, op.ResourceType, op.ResourceID, op.Holder, relErr)
		}
	}()

	execCtx := ctx
	if g.executeTimeout > 0 {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithTimeout(ctx, g.executeTimeout)
		defer cancel()
	}

	result, err := runAudited(ctx, g, op, execCtx, execute)
	if err != nil {
		return zero, err
	}
	return result, nil
}

// runAudited executes the operation body and records the terminal
// event. It is separated from Do so the deferred terminal record fires
// before Do's deferred lock release, even when execute panics.
func runAudited[T any](ctx context.Context, g *Guard, op Operation, execCtx context.Context, execute func(context.Context) (T, error)) (result T, err error) {
	terminal := false
	defer func() {
		if terminal {
			return
		}
		// Reached only when execute panicked: terminate the trail, then
		// re-raise the original panic (the lock release defer still runs).
		r := recover()
		g.recorder.Record(context.WithoutCancel(ctx), audit.Event{
			Operation: op.Name,
			Agent:     op.Holder,
			Result:    audit.ResultError,
			Details: audit.Details{
				SubjectType: op.ResourceType,
				SubjectID:   op.subject(),
				Message:     fmt.Sprintf("panic: %v", r),
			},
		})
		panic(r)
	}()

	result, err = execute(execCtx)
	terminal = true
	g.recordTerminal(ctx, op, err)
	return result, err
}

// recordTerminal emits the single terminal event for an operation:
// "success" when err is nil, "error" with the message otherwise. The
// record is detached from caller cancellation — a canceled operation
// still terminates its trail — while keeping the correlation value.
func (g *Guard) recordTerminal(ctx context.Context, op Operation, err error) {
	e := audit.Event{
		Operation: op.Name,
		Agent:     op.Holder,
		Result:    audit.ResultSuccess,
		Details:   audit.Details{SubjectType: op.ResourceType, SubjectID: op.subject()},
	}
	if err != nil {
		e.Result = audit.ResultError
		e.Details.Message = err.Error()
	}
	g.recorder.Record(context.WithoutCancel(ctx), e)
}

// subject returns the audited subject id, defaulting to the locked
// resource id.
func (op Operation) subject() string {
	if op.SubjectID != "" {
		return op.SubjectID
	}
	return op.ResourceID
}
