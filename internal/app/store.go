package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/louisbranch/milestonefund/internal/storage"
	boltstore "github.com/louisbranch/milestonefund/internal/storage/bbolt"
	"github.com/louisbranch/milestonefund/internal/storage/memory"
	redisstore "github.com/louisbranch/milestonefund/internal/storage/redis"
	sqlitestore "github.com/louisbranch/milestonefund/internal/storage/sqlite"
)

// OpenStore opens the backend named by cfg.Store.
func OpenStore(ctx context.Context, cfg Config) (storage.KV, error) {
	switch cfg.Store {
	case StoreMemory:
		return memory.New(), nil
	case StoreBolt:
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, err
		}
		store, err := boltstore.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open bbolt store: %w", err)
		}
		return store, nil
	case StoreSQLite:
		if err := ensureDir(cfg.DBPath); err != nil {
			return nil, err
		}
		store, err := sqlitestore.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	case StoreRedis:
		store, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func ensureDir(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create storage dir: %w", err)
		}
	}
	return nil
}
