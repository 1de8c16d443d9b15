package kv

import (
	"context"
	"time"
)

// Store is the key-value capability the core depends on: string keys to
// string values with optional per-key expiry. Implementations must treat
// a missing key as (value="", ok=false, err=nil), never as an error.
type Store interface {
	// Get returns the value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put writes the value. ttl <= 0 means no expiry.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// Delete removes the key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists all keys starting with prefix. Used by maintenance
	// sweeps only, never on the request path.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Ping reports backend liveness.
	Ping(ctx context.Context) error
}
