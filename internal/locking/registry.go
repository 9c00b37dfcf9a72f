// Package locking provides advisory mutual exclusion for shared resources.
//
// A lock is keyed by (resource type, resource id) and held by exactly one
// holder at a time. Locks are advisory: they only constrain callers that
// check them. Checkout is a try-lock — there is no waiting or queueing;
// a denied checkout is reported via the boolean return and the caller
// decides whether to retry or surface a busy error.
//
// The Registry is an in-process implementation. RedisStore (redis.go)
// offers the same contract across processes. Both satisfy Store, which
// is what the mutation guard consumes.
package locking

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the lock lifetime used when Config.TTL is zero.
// A holder that never checks in (crashed session, lost connection)
// frees its resources after this long.
const DefaultTTL = 5 * time.Minute

// Entry describes a currently held lock.
type Entry struct {
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	Holder       string    `json:"holder"`
	AcquiredAt   time.Time `json:"acquired_at"`
}

// Config holds Registry tuning knobs.
type Config struct {
	// TTL is how long a checkout remains valid before it can be
	// reclaimed by another holder. Zero means DefaultTTL; a negative
	// value disables expiry entirely.
	TTL time.Duration
}

// Registry is an in-memory lock table. It owns the table exclusively;
// no other component reads or writes it. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time // injectable clock for expiry tests
}

// NewRegistry creates an empty Registry. Registries are plain values
// meant to be constructor-injected — create one per server (or per
// tenant) rather than sharing a package-level instance.
func NewRegistry(cfg Config) *Registry {
	ttl := cfg.TTL
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Registry{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// key builds the map key for a (resource type, resource id) pair.
// NUL as separator keeps composite keys unambiguous even when ids
// contain the characters callers usually pick as delimiters.
func key(resourceType, resourceID string) string {
	return resourceType + "\x00" + resourceID
}

// validArgs reports whether all lock arguments are usable: non-empty
// after trimming. Identity is otherwise opaque — no format is imposed.
func validArgs(args ...string) bool {
	for _, a := range args {
		if strings.TrimSpace(a) == "" {
			return false
		}
	}
	return true
}

// Checkout attempts to acquire the lock for (resourceType, resourceID)
// on behalf of holder. It returns true and records the entry if the
// resource is free (or its previous lock has expired), false otherwise.
//
// The lock is strict and non-reentrant: a second checkout by the same
// holder is denied like any other. Invalid (empty) arguments are denied
// rather than rejected with an error, keeping the signature boolean-only.
func (r *Registry) Checkout(resourceType, resourceID, holder string) bool {
	if !validArgs(resourceType, resourceID, holder) {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(resourceType, resourceID)
	if existing, ok := r.entries[k]; ok {
		if !r.expired(existing) {
			return false
		}
		// Lazy reclamation: the previous holder's TTL lapsed, so the
		// entry is dead weight and this checkout may replace it.
		delete(r.entries, k)
	}

	r.entries[k] = Entry{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Holder:       holder,
		AcquiredAt:   r.now(),
	}
	return true
}

// Checkin releases the lock for (resourceType, resourceID) if and only
// if holder matches the current holder. Releasing an unheld lock, or one
// held by someone else, is a deliberate no-op so that double releases
// and stale releases never disturb a valid lock.
func (r *Registry) Checkin(resourceType, resourceID, holder string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k := key(resourceType, resourceID)
	existing, ok := r.entries[k]
	if !ok || existing.Holder != holder {
		return
	}
	delete(r.entries, k)
}

// Holder returns the identity currently holding the lock and true, or
// ("", false) if the resource is free or its lock has expired.
func (r *Registry) Holder(resourceType, resourceID string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.entries[key(resourceType, resourceID)]
	if !ok || r.expired(existing) {
		return "", false
	}
	return existing.Holder, true
}

// Locked reports whether the resource currently has a live lock.
func (r *Registry) Locked(resourceType, resourceID string) bool {
	_, ok := r.Holder(resourceType, resourceID)
	return ok
}

// Snapshot returns all live entries, sorted by resource type then id,
// for status reporting. Expired entries are omitted (and left for lazy
// reclamation — Snapshot never mutates the table).
func (r *Registry) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		if r.expired(e) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ResourceType != out[j].ResourceType {
			return out[i].ResourceType < out[j].ResourceType
		}
		return out[i].ResourceID < out[j].ResourceID
	})
	return out
}

// ReleaseAllHeldBy releases every lock owned by holder and returns the
// number released. Used on session teardown so a departing agent leaves
// nothing behind.
func (r *Registry) ReleaseAllHeldBy(holder string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	released := 0
	for k, e := range r.entries {
		if e.Holder == holder {
			delete(r.entries, k)
			released++
		}
	}
	return released
}

// expired reports whether an entry's TTL has lapsed. Callers hold r.mu.
func (r *Registry) expired(e Entry) bool {
	if r.ttl < 0 {
		return false
	}
	return r.now().Sub(e.AcquiredAt) >= r.ttl
}
