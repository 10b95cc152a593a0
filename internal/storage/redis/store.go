// Package redis provides a Redis-backed storage.KV.
//
// Update uses optimistic WATCH/MULTI/EXEC: keys read inside the callback are
// watched, writes are staged and flushed in one MULTI block. A concurrent
// writer to a watched key fails the update with redis.TxFailedErr; the store
// never retries.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/louisbranch/milestonefund/internal/storage"
	"github.com/redis/go-redis/v9"
)

// Config selects the Redis server and the key namespace for one contract instance.
type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Store provides a Redis-backed key-value store.
type Store struct {
	client *redis.Client
	prefix string
}

// Open connects to Redis and verifies the connection.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return New(client, cfg.Prefix), nil
}

// New wraps an existing client. Keys are stored as prefix + key.
func New(client *redis.Client, prefix string) *Store {
	return &Store{client: client, prefix: prefix}
}

// Close closes the underlying client.
func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// View runs fn against plain GET commands.
func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	return fn(&readTx{ctx: ctx, store: s})
}

// Update runs fn inside a WATCH block and commits staged writes with MULTI/EXEC.
func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.client.Watch(ctx, func(rtx *redis.Tx) error {
		wtx := &writeTx{ctx: ctx, store: s, rtx: rtx, staged: map[string][]byte{}}
		if err := fn(wtx); err != nil {
			return err
		}
		if len(wtx.staged) == 0 {
			return nil
		}
		_, err := rtx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, key := range wtx.order {
				pipe.Set(ctx, s.key(key), wtx.staged[key], 0)
			}
			return nil
		})
		return err
	})
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

func get(ctx context.Context, cmd redis.Cmdable, key string) ([]byte, error) {
	value, err := cmd.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return value, nil
}

type readTx struct {
	ctx   context.Context
	store *Store
}

func (t *readTx) Get(key string) ([]byte, error) {
	return get(t.ctx, t.store.client, t.store.key(key))
}

func (t *readTx) Set(string, []byte) error {
	return storage.ErrReadOnly
}

type writeTx struct {
	ctx    context.Context
	store  *Store
	rtx    *redis.Tx
	staged map[string][]byte
	order  []string
}

func (t *writeTx) Get(key string) ([]byte, error) {
	if value, ok := t.staged[key]; ok {
		return append([]byte(nil), value...), nil
	}
	full := t.store.key(key)
	if err := t.rtx.Watch(t.ctx, full).Err(); err != nil {
		return nil, fmt.Errorf("watch %s: %w", full, err)
	}
	return get(t.ctx, t.rtx, full)
}

func (t *writeTx) Set(key string, value []byte) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("storage key is required")
	}
	if _, ok := t.staged[key]; !ok {
		t.order = append(t.order, key)
	}
	t.staged[key] = append([]byte(nil), value...)
	return nil
}

var _ storage.KV = (*Store)(nil)
