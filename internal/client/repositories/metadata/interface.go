// Package metadata persists small key/value records in the local SQLite
// store. It backs the durable token slot and survives client restarts.
package metadata

import (
	"context"
)

// Repository is a key/value view over the metadata table.
type Repository interface {
	// Get returns the value under key; found is false when no row exists.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	// Set inserts or replaces the value under key.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
