// Package store defines the key-value capability set consumed by fetchcache.
//
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the bytes previously passed to SetEx for a key. Counter keys written by Incr
// read back through Get as a base-10 integer, the way Redis stores INCR values.
//
// Counters never expire unless the backend evicts them; SetEx TTLs apply to
// content keys only.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotInteger is returned by Incr when the key holds a non-integer value.
var ErrNotInteger = errors.New("store: value is not an integer")

// Store must be safe for concurrent use.
type Store interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// SetEx stores value with the given TTL. ttl <= 0 means no expiry.
	SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Incr atomically creates key at 0 when absent, adds one and returns the
	// new value. A key's existing TTL, if any, is preserved.
	Incr(ctx context.Context, key string) (int64, error)

	Exists(ctx context.Context, key string) (bool, error)

	// Del removes a key. Deleting a missing key is not an error.
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}
