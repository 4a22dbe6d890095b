package store

import (
	"context"
	"errors"
)

// Backend is the durable key-value storage a PersistentList writes through.
// Consumers define this interface, not the Redis or MongoDB implementation.
type Backend interface {
	// Load returns the raw document stored under namespace or ErrNotFound
	Load(ctx context.Context, namespace string) ([]byte, error)
	Save(ctx context.Context, namespace string, data []byte) error
	Delete(ctx context.Context, namespace string) error
}

var ErrNotFound = errors.New("namespace not found")
