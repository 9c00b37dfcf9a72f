// Package correlation threads a per-operation identifier through a call
// tree so every audit emission of one logical operation can be grouped
// after the fact.
//
// The identifier rides on context.Context, never on package state:
// concurrent operations each carry their own context branch and can
// never observe one another's id. Child goroutines and downstream calls
// that receive the context inherit the id for free.
package correlation

import (
	"context"

	"github.com/google/uuid"
)

// ctxKey is unexported so only this package can bind the value.
type ctxKey struct{}

// NewContext returns a child context carrying a freshly generated
// correlation id. Call it once at the top of a logical operation; an
// already-bound id is deliberately replaced, since a nested operation is
// a new operation.
func NewContext(parent context.Context) context.Context {
	return context.WithValue(parent, ctxKey{}, uuid.NewString())
}

// ContextWithID binds a caller-supplied correlation id, for propagating
// an id received from elsewhere (or pinning one in tests).
func ContextWithID(parent context.Context, id string) context.Context {
	return context.WithValue(parent, ctxKey{}, id)
}

// ID returns the correlation id bound by the nearest enclosing
// NewContext/ContextWithID, or ("", false) outside any operation.
func ID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}
