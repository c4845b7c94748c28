// Package session persists one dialogue state label per chat.
// Backends differ in durability only; all of them are last-writer-wins per key.
package session

import (
	"context"
	"errors"
)

// ErrClosed is returned by stores used after Close.
var ErrClosed = errors.New("session: store closed")

// Store is a string key/value store with a distinguishable "absent" outcome.
type Store interface {
	// Get returns the stored value and found=false when the key has never been set
	// or was evicted. A non-nil error means the backend could not be read.
	Get(ctx context.Context, key string) (value string, found bool, err error)
	// Set overwrites the value unconditionally.
	Set(ctx context.Context, key, value string) error
	// Ping reports backend reachability for health checks.
	Ping(ctx context.Context) error
	Close() error
}
