package locking

import (
	"sync"
	"testing"
	"time"
)

func testRegistry() *Registry {
	return NewRegistry(Config{})
}

// --- Checkout / Checkin basics ---

func TestCheckout_FreeResource(t *testing.T) {
	r := testRegistry()
	if !r.Checkout("action-list", "AL-1", "agent-a") {
		t.Fatal("Checkout of a free resource should succeed")
	}
	holder, ok := r.Holder("action-list", "AL-1")
	if !ok {
		t.Fatal("Holder should report the lock as held")
	}
	if holder != "agent-a" {
		t.Errorf("holder = %q, want agent-a", holder)
	}
}

func TestCheckout_HeldResourceDenied(t *testing.T) {
	r := testRegistry()
	if !r.Checkout("action-list", "AL-1", "agent-a") {
		t.Fatal("first checkout should succeed")
	}
	if r.Checkout("action-list", "AL-1", "agent-b") {
		t.Error("checkout of a held resource should be denied")
	}
	// Denied checkout must not disturb the existing entry.
	if holder, _ := r.Holder("action-list", "AL-1"); holder != "agent-a" {
		t.Errorf("holder = %q after denied checkout, want agent-a", holder)
	}
}

func TestCheckout_NotReentrant(t *testing.T) {
	r := testRegistry()
	if !r.Checkout("action-list", "AL-1", "agent-a") {
		t.Fatal("first checkout should succeed")
	}
	if r.Checkout("action-list", "AL-1", "agent-a") {
		t.Error("same-holder re-checkout should be denied — the lock is not reentrant")
	}
}

func TestCheckout_DistinctKeysIndependent(t *testing.T) {
	r := testRegistry()
	if !r.Checkout("action-list", "AL-1", "agent-a") {
		t.Fatal("checkout AL-1 should succeed")
	}
	if !r.Checkout("action-list", "AL-2", "agent-a") {
		t.Error("checkout of a different id should succeed")
	}
	if !r.Checkout("project", "AL-1", "agent-b") {
		t.Error("checkout of the same id under a different type should succeed")
	}
}

func TestCheckout_EmptyArgsDenied(t *testing.T) {
	r := testRegistry()
	cases := []struct {
		name                 string
		resType, resID, hold string
	}{
		{"empty type", "", "AL-1", "agent-a"},
		{"empty id", "action-list", "", "agent-a"},
		{"empty holder", "action-list", "AL-1", ""},
		{"whitespace holder", "action-list", "AL-1", "   "},
	}
	for _, tc := range cases {
		if r.Checkout(tc.resType, tc.resID, tc.hold) {
			t.Errorf("%s: checkout should be denied", tc.name)
		}
	}
}

// Example from the lock lifecycle: checkout → denied → checkin → checkout.
func TestLockLifecycle(t *testing.T) {
	r := testRegistry()
	if !r.Checkout("action-list", "AL-1", "agent-a") {
		t.Fatal("agent-a checkout should succeed")
	}
	if r.Checkout("action-list", "AL-1", "agent-b") {
		t.Fatal("agent-b checkout while held should be denied")
	}
	r.Checkin("action-list", "AL-1", "agent-a")
	if !r.Checkout("action-list", "AL-1", "agent-b") {
		t.Error("agent-b checkout after release should succeed")
	}
}

// --- Checkin defensiveness ---

func TestCheckin_WrongHolderIsNoOp(t *testing.T) {
	r := testRegistry()
	r.Checkout("action-list", "AL-1", "agent-a")
	r.Checkin("action-list", "AL-1", "agent-b")

	if holder, ok := r.Holder("action-list", "AL-1"); !ok || holder != "agent-a" {
		t.Errorf("wrong-holder checkin disturbed the lock: holder=%q held=%v", holder, ok)
	}
}

func TestCheckin_UnheldIsNoOp(t *testing.T) {
	r := testRegistry()
	r.Checkin("action-list", "missing", "agent-a") // must not panic or create entries
	if r.Locked("action-list", "missing") {
		t.Error("checkin of an unheld resource should not create a lock")
	}
}

func TestCheckin_DoubleReleaseIsNoOp(t *testing.T) {
	r := testRegistry()
	r.Checkout("action-list", "AL-1", "agent-a")
	r.Checkin("action-list", "AL-1", "agent-a")
	r.Checkin("action-list", "AL-1", "agent-a")
	if r.Locked("action-list", "AL-1") {
		t.Error("resource should be free after release")
	}
}

// --- TTL expiry ---

func TestCheckout_ExpiredLockReclaimed(t *testing.T) {
	r := NewRegistry(Config{TTL: time.Minute})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }

	if !r.Checkout("action-list", "AL-1", "agent-a") {
		t.Fatal("initial checkout should succeed")
	}

	// Just inside the TTL: still held.
	r.now = func() time.Time { return base.Add(59 * time.Second) }
	if r.Checkout("action-list", "AL-1", "agent-b") {
		t.Fatal("checkout before expiry should be denied")
	}

	// TTL lapsed: the dead entry is reclaimed by the next checkout.
	r.now = func() time.Time { return base.Add(61 * time.Second) }
	if !r.Checkout("action-list", "AL-1", "agent-b") {
		t.Fatal("checkout after expiry should succeed")
	}
	if holder, _ := r.Holder("action-list", "AL-1"); holder != "agent-b" {
		t.Errorf("holder = %q after reclamation, want agent-b", holder)
	}
}

func TestHolder_ExpiredLockReportsFree(t *testing.T) {
	r := NewRegistry(Config{TTL: time.Minute})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	r.Checkout("action-list", "AL-1", "agent-a")

	r.now = func() time.Time { return base.Add(2 * time.Minute) }
	if _, ok := r.Holder("action-list", "AL-1"); ok {
		t.Error("expired lock should read as free")
	}
}

func TestNegativeTTL_NeverExpires(t *testing.T) {
	r := NewRegistry(Config{TTL: -1})
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return base }
	r.Checkout("action-list", "AL-1", "agent-a")

	r.now = func() time.Time { return base.Add(24 * time.Hour) }
	if r.Checkout("action-list", "AL-1", "agent-b") {
		t.Error("lock with expiry disabled should still be held")
	}
}

// --- Snapshot and bulk release ---

func TestSnapshot_SortedAndLive(t *testing.T) {
	r := testRegistry()
	r.Checkout("project", "P-1", "agent-a")
	r.Checkout("action-list", "AL-2", "agent-b")
	r.Checkout("action-list", "AL-1", "agent-a")

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("snapshot has %d entries, want 3", len(snap))
	}
	wantOrder := []string{"AL-1", "AL-2", "P-1"}
	for i, want := range wantOrder {
		if snap[i].ResourceID != want {
			t.Errorf("snapshot[%d].ResourceID = %q, want %q", i, snap[i].ResourceID, want)
		}
	}
}

func TestReleaseAllHeldBy(t *testing.T) {
	r := testRegistry()
	r.Checkout("action-list", "AL-1", "agent-a")
	r.Checkout("action-list", "AL-2", "agent-a")
	r.Checkout("action-list", "AL-3", "agent-b")

	if n := r.ReleaseAllHeldBy("agent-a"); n != 2 {
		t.Errorf("released %d locks, want 2", n)
	}
	if r.Locked("action-list", "AL-1") || r.Locked("action-list", "AL-2") {
		t.Error("agent-a's locks should all be released")
	}
	if !r.Locked("action-list", "AL-3") {
		t.Error("agent-b's lock should be untouched")
	}
}

// --- Mutual exclusion under real parallelism ---

// Many goroutines race to check out the same key; exactly one may win
// per release cycle.
func TestCheckout_MutualExclusionConcurrent(t *testing.T) {
	r := testRegistry()

	const goroutines = 64
	var wg sync.WaitGroup
	wins := make(chan string, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			holder := string(rune('a' + id%26))
			if r.Checkout("action-list", "AL-race", holder) {
				wins <- holder
			}
		}(i)
	}
	wg.Wait()
	close(wins)

	var winners []string
	for w := range wins {
		winners = append(winners, w)
	}
	if len(winners) != 1 {
		t.Fatalf("%d goroutines won the checkout race, want exactly 1", len(winners))
	}
	if holder, _ := r.Holder("action-list", "AL-race"); holder != winners[0] {
		t.Errorf("holder = %q, want race winner %q", holder, winners[0])
	}
}
