package locking

import "context"

// Store is the lock contract the mutation guard consumes. It abstracts
// over the in-process Registry and the Redis-backed RedisStore so the
// guard doesn't care where the lock table lives.
//
// Acquire is a try-lock: (false, nil) means the resource is busy, which
// is an expected outcome, not an error. An error return means the store
// itself failed (e.g. Redis unreachable) and nothing was acquired.
type Store interface {
	Acquire(ctx context.Context, resourceType, resourceID, holder string) (bool, error)
	Release(ctx context.Context, resourceType, resourceID, holder string) error
}

// Acquire implements Store over the in-memory table. The context is
// unused — map operations don't block.
func (r *Registry) Acquire(_ context.Context, resourceType, resourceID, holder string) (bool, error) {
	return r.Checkout(resourceType, resourceID, holder), nil
}

// Release implements Store. Owner-checked no-op semantics carry over
// from Checkin, so Release never fails for the in-memory table.
func (r *Registry) Release(_ context.Context, resourceType, resourceID, holder string) error {
	r.Checkin(resourceType, resourceID, holder)
	return nil
}
