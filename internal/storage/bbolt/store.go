// Package bbolt provides a BoltDB-backed storage.KV.
package bbolt

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/louisbranch/milestonefund/internal/storage"
	"go.etcd.io/bbolt"
)

const contractBucket = "contract"

// Store provides a BoltDB-backed key-value store.
type Store struct {
	db *bbolt.DB
}

// Open opens a BoltDB-backed store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	db, err := bbolt.Open(cleanPath, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open storage db: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureBuckets(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying BoltDB database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// View runs fn in a BoltDB read transaction.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.View(func(btx *bbolt.Tx) error {
		bucket := btx.Bucket([]byte(contractBucket))
		if bucket == nil {
			return fmt.Errorf("contract bucket is missing")
		}
		return fn(&tx{bucket: bucket, readOnly: true})
	})
}

// Update runs fn in a BoltDB write transaction. BoltDB rolls the transaction
// back when fn returns an error.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.db == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.db.Update(func(btx *bbolt.Tx) error {
		bucket := btx.Bucket([]byte(contractBucket))
		if bucket == nil {
			return fmt.Errorf("contract bucket is missing")
		}
		return fn(&tx{bucket: bucket})
	})
}

func (s *Store) ensureBuckets() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(contractBucket))
		if err != nil {
			return fmt.Errorf("create contract bucket: %w", err)
		}
		return nil
	})
}

type tx struct {
	bucket   *bbolt.Bucket
	readOnly bool
}

// Get copies the value out; BoltDB slices are only valid inside the transaction.
func (t *tx) Get(key string) ([]byte, error) {
	payload := t.bucket.Get([]byte(key))
	if payload == nil {
		return nil, storage.ErrNotFound
	}
	out := make([]byte, len(payload))
	copy(out, payload)
	return out, nil
}

func (t *tx) Set(key string, value []byte) error {
	if t.readOnly {
		return storage.ErrReadOnly
	}
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	return t.bucket.Put([]byte(key), value)
}
