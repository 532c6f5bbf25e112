package store

import "context"

// Store is the key-value persistence capability the engine saves session
// snapshots into. Implementations must treat values as opaque strings.
//
// Store failures are recoverable by contract: the engine reports them
// through its error channel and keeps the in-memory session intact.
type Store interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set writes the value for key, overwriting any previous value.
	Set(ctx context.Context, key string, value string) error
	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}
