// Package store persists small keyed blobs, such as the mapping profiles of
// docmerge, between runs.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get for a key that holds no value.
var ErrNotFound = errors.New("store: key not found")

// Store is a key-value store for opaque values.
type Store interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Keys returns every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the store.
	Close() error
}
