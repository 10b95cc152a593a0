// Package storagetest holds the behavior every storage.KV must share.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/louisbranch/milestonefund/internal/storage"
)

// Opener returns a fresh, empty store. The suite closes it.
type Opener func(t *testing.T) storage.KV

// Run executes the conformance suite against stores built by open.
func Run(t *testing.T, open Opener) {
	t.Helper()

	t.Run("get missing key", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		err := store.View(context.Background(), func(tx storage.Tx) error {
			_, err := tx.Get("missing")
			return err
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
		}
	})

	t.Run("set then get", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		if err := store.Update(ctx, func(tx storage.Tx) error {
			return tx.Set("campaign_data", []byte("v1"))
		}); err != nil {
			t.Fatalf("update: %v", err)
		}
		if err := store.Update(ctx, func(tx storage.Tx) error {
			return tx.Set("campaign_data", []byte("v2"))
		}); err != nil {
			t.Fatalf("overwrite: %v", err)
		}

		got := mustGet(t, store, "campaign_data")
		if string(got) != "v2" {
			t.Fatalf("value = %q, want v2", got)
		}
	})

	t.Run("read your writes", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		err := store.Update(context.Background(), func(tx storage.Tx) error {
			if err := tx.Set("k", []byte("staged")); err != nil {
				return err
			}
			got, err := tx.Get("k")
			if err != nil {
				return err
			}
			if string(got) != "staged" {
				t.Errorf("in-tx value = %q, want staged", got)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
	})

	t.Run("failed update commits nothing", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		if err := store.Update(ctx, func(tx storage.Tx) error {
			return tx.Set("k", []byte("original"))
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}

		boom := errors.New("validation failed")
		err := store.Update(ctx, func(tx storage.Tx) error {
			if err := tx.Set("k", []byte("changed")); err != nil {
				return err
			}
			if err := tx.Set("other", []byte("x")); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want %v", err, boom)
		}

		if got := mustGet(t, store, "k"); string(got) != "original" {
			t.Fatalf("value = %q, want original", got)
		}
		err = store.View(ctx, func(tx storage.Tx) error {
			_, err := tx.Get("other")
			return err
		})
		if !errors.Is(err, storage.ErrNotFound) {
			t.Fatalf("other err = %v, want not found", err)
		}
	})

	t.Run("view is read-only", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		err := store.View(context.Background(), func(tx storage.Tx) error {
			return tx.Set("k", []byte("v"))
		})
		if !errors.Is(err, storage.ErrReadOnly) {
			t.Fatalf("err = %v, want %v", err, storage.ErrReadOnly)
		}
	})

	t.Run("returned values are copies", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		if err := store.Update(ctx, func(tx storage.Tx) error {
			return tx.Set("k", []byte("abc"))
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}
		got := mustGet(t, store, "k")
		got[0] = 'z'
		if again := mustGet(t, store, "k"); string(again) != "abc" {
			t.Fatalf("value = %q, want abc", again)
		}
	})

	t.Run("canceled context", func(t *testing.T) {
		store := open(t)
		defer store.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		err := store.Update(ctx, func(tx storage.Tx) error {
			called = true
			return nil
		})
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want %v", err, context.Canceled)
		}
		if called {
			t.Fatal("expected callback not to run")
		}
	})
}

func mustGet(t *testing.T, store storage.KV, key string) []byte {
	t.Helper()
	var value []byte
	err := store.View(context.Background(), func(tx storage.Tx) error {
		got, err := tx.Get(key)
		value = got
		return err
	})
	if err != nil {
		t.Fatalf("get %q: %v", key, err)
	}
	return value
}
