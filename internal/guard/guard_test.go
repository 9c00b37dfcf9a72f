package guard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/audit"
	"github.com/jhardy82/ContextForge-Workv2-sub007/internal/locking"
)

func testGuard(opts ...Option) (*Guard, *locking.Registry, *audit.MemorySink) {
	registry := locking.NewRegistry(locking.Config{})
	sink := audit.NewMemorySink()
	g := New(registry, audit.NewRecorder(sink), opts...)
	return g, registry, sink
}

func op(name, resourceID, holder string) Operation {
	return Operation{
		Name:         name,
		ResourceType: "action-list",
		ResourceID:   resourceID,
		Holder:       holder,
	}
}

// --- Success path ---

func TestDo_SuccessReturnsResult(t *testing.T) {
	g, registry, sink := testGuard()

	got, err := Do(context.Background(), g, op("list_update", "AL-3", "agent-a"),
		func(ctx context.Context) (string, error) {
			return "AL-3", nil
		})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if got != "AL-3" {
		t.Errorf("result = %q, want AL-3", got)
	}

	// Trail: initiated then success, same correlation id.
	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	if events[0].Result != audit.ResultInitiated || events[1].Result != audit.ResultSuccess {
		t.Errorf("event results = %s, %s; want initiated, success", events[0].Result, events[1].Result)
	}
	if events[0].CorrelationID == "" || events[0].CorrelationID != events[1].CorrelationID {
		t.Errorf("events should share one non-empty correlation id, got %q and %q",
			events[0].CorrelationID, events[1].CorrelationID)
	}

	// Lock is free afterward.
	if registry.Locked("action-list", "AL-3") {
		t.Error("lock should be released after a successful operation")
	}
}

// --- Error path ---

func TestDo_ErrorAuditedAndReturnedUnchanged(t *testing.T) {
	g, registry, sink := testGuard()
	execErr := errors.New("db timeout")

	_, err := Do(context.Background(), g, op("list_update", "AL-2", "agent-a"),
		func(ctx context.Context) (string, error) {
			return "", execErr
		})
	if !errors.Is(err, execErr) {
		t.Fatalf("caller should receive the original error, got %v", err)
	}

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	if events[1].Result != audit.ResultError {
		t.Errorf("terminal result = %s, want error", events[1].Result)
	}
	if events[1].Details.Message != "db timeout" {
		t.Errorf("error message = %q, want %q", events[1].Details.Message, "db timeout")
	}

	// A new holder can check out immediately.
	if !registry.Checkout("action-list", "AL-2", "agent-b") {
		t.Error("lock should be released after a failed operation")
	}
}

// --- Lock contention ---

func TestDo_LockedResourceRejectedWithoutExecuting(t *testing.T) {
	g, registry, sink := testGuard()
	if !registry.Checkout("action-list", "AL-4", "agent-b") {
		t.Fatal("test setup checkout failed")
	}

	executed := false
	_, err := Do(context.Background(), g, op("list_update", "AL-4", "agent-a"),
		func(ctx context.Context) (string, error) {
			executed = true
			return "", nil
		})

	if !errors.Is(err, ErrResourceLocked) {
		t.Fatalf("error = %v, want ErrResourceLocked", err)
	}
	var lockErr *LockedError
	if !errors.As(err, &lockErr) {
		t.Fatal("error should be a *LockedError")
	}
	if lockErr.ResourceID != "AL-4" {
		t.Errorf("LockedError.ResourceID = %q, want AL-4", lockErr.ResourceID)
	}
	if executed {
		t.Error("execute must not run when the lock is denied")
	}

	// The rejection is audited: initiated + terminal error.
	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	if events[1].Result != audit.ResultError {
		t.Errorf("terminal result = %s, want error", events[1].Result)
	}

	// The other holder's lock is untouched.
	if holder, _ := registry.Holder("action-list", "AL-4"); holder != "agent-b" {
		t.Errorf("holder = %q after rejected checkout, want agent-b", holder)
	}
}

func TestDo_ConcurrentInvocations_ExactlyOneExecutes(t *testing.T) {
	g, _, _ := testGuard()

	start := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var executions, rejections int

	var wg sync.WaitGroup
	for _, holder := range []string{"agent-a", "agent-b"} {
		wg.Add(1)
		go func(h string) {
			defer wg.Done()
			<-start
			_, err := Do(context.Background(), g, op("list_update", "AL-4", h),
				func(ctx context.Context) (string, error) {
					mu.Lock()
					executions++
					mu.Unlock()
					<-release // hold the lock until both goroutines have tried
					return "", nil
				})
			if errors.Is(err, ErrResourceLocked) {
				mu.Lock()
				rejections++
				mu.Unlock()
				close(release)
			}
		}(holder)
	}

	close(start)
	wg.Wait()

	if executions != 1 {
		t.Errorf("executions = %d, want exactly 1", executions)
	}
	if rejections != 1 {
		t.Errorf("rejections = %d, want exactly 1", rejections)
	}
}

// --- Guaranteed release ---

func TestDo_CancellationStillReleasesLock(t *testing.T) {
	g, registry, sink := testGuard()

	ctx, cancel := context.WithCancel(context.Background())
	_, err := Do(ctx, g, op("list_update", "AL-5", "agent-a"),
		func(ctx context.Context) (string, error) {
			cancel()
			return "", ctx.Err()
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	if !registry.Checkout("action-list", "AL-5", "agent-b") {
		t.Error("lock should be released after cancellation")
	}
	if events := sink.Events(); len(events) != 2 {
		t.Errorf("got %d audit events, want 2", len(events))
	}
}

// A canceled caller must not be able to truncate the trail: the
// terminal record goes through even when the sink respects context
// cancellation, as the SQLite sink does.
func TestDo_CanceledContextStillTerminatesTrailInSQLiteSink(t *testing.T) {
	sink, err := audit.NewSQLiteSink(t.TempDir())
	if err != nil {
		t.Fatalf("setup: audit sink: %v", err)
	}
	defer sink.Close()
	g := New(locking.NewRegistry(locking.Config{}), audit.NewRecorder(sink))

	ctx, cancel := context.WithCancel(context.Background())
	_, err = Do(ctx, g, op("list_update", "AL-5", "agent-a"),
		func(ctx context.Context) (string, error) {
			cancel()
			return "", ctx.Err()
		})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}

	events, err := sink.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d persisted audit events, want 2", len(events))
	}
	// Recent returns newest first: terminal error, then initiated.
	if events[0].Result != audit.ResultError || events[1].Result != audit.ResultInitiated {
		t.Errorf("event results = %s, %s; want error, initiated", events[0].Result, events[1].Result)
	}
	if events[0].CorrelationID == "" || events[0].CorrelationID != events[1].CorrelationID {
		t.Errorf("events should share one non-empty correlation id, got %q and %q",
			events[0].CorrelationID, events[1].CorrelationID)
	}
}

func TestDo_PanicReleasesLockAndTerminatesTrail(t *testing.T) {
	g, registry, sink := testGuard()

	func() {
		defer func() {
			if r := recover(); r != "boom" {
				t.Errorf("recovered %v, want the original panic value", r)
			}
		}()
		_, _ = Do(context.Background(), g, op("list_update", "AL-6", "agent-a"),
			func(ctx context.Context) (string, error) {
				panic("boom")
			})
	}()

	if registry.Locked("action-list", "AL-6") {
		t.Error("lock should be released after a panic")
	}
	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	if events[1].Result != audit.ResultError {
		t.Errorf("terminal result = %s, want error", events[1].Result)
	}
}

// --- Execute timeout ---

func TestDo_ExecuteTimeout(t *testing.T) {
	g, registry, sink := testGuard(WithExecuteTimeout(10 * time.Millisecond))

	_, err := Do(context.Background(), g, op("list_update", "AL-7", "agent-a"),
		func(ctx context.Context) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "done", nil
			}
		})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("error = %v, want context.DeadlineExceeded", err)
	}

	if registry.Locked("action-list", "AL-7") {
		t.Error("lock should be released after a timeout")
	}
	events := sink.Events()
	if len(events) != 2 || events[1].Result != audit.ResultError {
		t.Error("timeout should be audited as a terminal error")
	}
}

// --- Correlation isolation across operations ---

func TestDo_DistinctOperationsGetDistinctCorrelationIDs(t *testing.T) {
	g, _, sink := testGuard()

	for i := 0; i < 2; i++ {
		resID := fmt.Sprintf("AL-%d", i)
		if _, err := Do(context.Background(), g, op("list_update", resID, "agent-a"),
			func(ctx context.Context) (string, error) { return "", nil }); err != nil {
			t.Fatalf("Do failed: %v", err)
		}
	}

	events := sink.Events()
	if len(events) != 4 {
		t.Fatalf("got %d audit events, want 4", len(events))
	}
	if events[0].CorrelationID == events[2].CorrelationID {
		t.Error("separate operations must not share a correlation id")
	}
	if events[0].CorrelationID != events[1].CorrelationID ||
		events[2].CorrelationID != events[3].CorrelationID {
		t.Error("each operation's pair must share its correlation id")
	}
}

// --- Lock store failure ---

type failingStore struct{ err error }

func (f failingStore) Acquire(context.Context, string, string, string) (bool, error) {
	return false, f.err
}
func (f failingStore) Release(context.Context, string, string, string) error { return nil }

type failingReleaseStore struct{ err error }

func (f failingReleaseStore) Acquire(context.Context, string, string, string) (bool, error) {
	return true, nil
}
func (f failingReleaseStore) Release(context.Context, string, string, string) error {
	return f.err
}

// A failed release is an operational problem, not part of the
// operation's trail: the invocation still yields exactly one initiated
// and one terminal event.
func TestDo_ReleaseFailureDoesNotAddAuditEvents(t *testing.T) {
	sink := audit.NewMemorySink()
	g := New(failingReleaseStore{err: errors.New("redis unreachable")}, audit.NewRecorder(sink))

	got, err := Do(context.Background(), g, op("list_update", "AL-9", "agent-a"),
		func(ctx context.Context) (string, error) { return "AL-9", nil })
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if got != "AL-9" {
		t.Errorf("result = %q, want AL-9", got)
	}

	events := sink.Events()
	if len(events) != 2 {
		t.Fatalf("got %d audit events, want 2", len(events))
	}
	if events[0].Result != audit.ResultInitiated || events[1].Result != audit.ResultSuccess {
		t.Errorf("event results = %s, %s; want initiated, success", events[0].Result, events[1].Result)
	}
}

func TestDo_StoreFailureIsAuditedAndWrapped(t *testing.T) {
	sink := audit.NewMemorySink()
	g := New(failingStore{err: errors.New("redis unreachable")}, audit.NewRecorder(sink))

	_, err := Do(context.Background(), g, op("list_update", "AL-8", "agent-a"),
		func(ctx context.Context) (string, error) { return "", nil })
	if err == nil {
		t.Fatal("store failure should surface as an error")
	}
	if errors.Is(err, ErrResourceLocked) {
		t.Error("a store fault is not lock contention")
	}

	events := sink.Events()
	if len(events) != 2 || events[1].Result != audit.ResultError {
		t.Error("store failure should terminate the trail with an error event")
	}
}
