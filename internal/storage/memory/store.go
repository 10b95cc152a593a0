// Package memory provides an in-process storage.KV.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/louisbranch/milestonefund/internal/storage"
)

// Store keeps values in a map guarded by a lock. Update holds the write lock
// for the whole callback and applies staged writes only on success.
type Store struct {
	mu     sync.RWMutex
	values map[string][]byte
	closed bool
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string][]byte)}
}

// Close marks the store closed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// View runs fn against a read-only view.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	return fn(&tx{store: s, readOnly: true})
}

// Update runs fn and commits its writes when it returns nil.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return fmt.Errorf("storage is closed")
	}
	pending := &tx{store: s, staged: make(map[string][]byte)}
	if err := fn(pending); err != nil {
		return err
	}
	for key, value := range pending.staged {
		s.values[key] = value
	}
	return nil
}

type tx struct {
	store    *Store
	readOnly bool
	staged   map[string][]byte
}

func (t *tx) Get(key string) ([]byte, error) {
	if value, ok := t.staged[key]; ok {
		return clone(value), nil
	}
	value, ok := t.store.values[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clone(value), nil
}

func (t *tx) Set(key string, value []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	t.staged[key] = clone(value)
	return nil
}

func clone(value []byte) []byte {
	out := make([]byte, len(value))
	copy(out, value)
	return out
}
