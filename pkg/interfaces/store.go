package interfaces

import (
	"context"
	"errors"
)

// ErrQuotaExceeded is returned by a store that has no room for a new key.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// Storage defines the persistent string-keyed medium a cache is layered over.
type Storage interface {
	// Name returns a name for metrics or identification purposes.
	Name() string

	// Get returns the stored string and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores a value, overwriting any prior value under the key.
	Set(ctx context.Context, key string, value string) error

	// Delete removes a key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys enumerates every key currently in the store.
	Keys(ctx context.Context) ([]string, error)

	// Close releases any resources or connections when the store is no longer in use.
	Close() error
}

// PrefixLister is implemented by stores that can enumerate keys by prefix
// without listing the whole store.
type PrefixLister interface {
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
}
