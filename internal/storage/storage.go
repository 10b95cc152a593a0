package storage

import (
	"context"
	"errors"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrReadOnly indicates a write attempted inside a read transaction.
var ErrReadOnly = errors.New("transaction is read-only")

// Tx reads and writes keys within one transaction.
type Tx interface {
	// Get returns the value stored at key, or ErrNotFound.
	Get(key string) ([]byte, error)
	// Set replaces the value stored at key.
	Set(key string, value []byte) error
}

// KV is a transactional key-value store.
type KV interface {
	// View runs fn in a read-only transaction.
	View(ctx context.Context, fn func(Tx) error) error
	// Update runs fn in a read-write transaction and commits only when fn
	// returns nil.
	Update(ctx context.Context, fn func(Tx) error) error
	// Close releases the store.
	Close() error
}
