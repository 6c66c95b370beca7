// Package cache provides byte-oriented key/value stores with per-entry
// expiry. The site keeps rendered CMS content in one of them.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Store is a key/value store with per-entry expiry. A ttl <= 0 keeps the
// entry until it is deleted.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Pruner is implemented by stores that keep expired entries until swept.
type Pruner interface {
	Prune(ctx context.Context) (int64, error)
}

var (
	_ Pruner = (*Memory)(nil)
	_ Pruner = (*SQLite)(nil)
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Config selects and configures a backend.
type Config struct {
	Backend       string
	SQLitePath    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	// Prefix namespaces keys in shared backends.
	Prefix string
}

// Open returns the store named by cfg.Backend. An empty backend means memory.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return NewSQLite(cfg.SQLitePath)
	case BackendRedis:
		return NewRedis(ctx, RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.Prefix,
		})
	default:
		return nil, fmt.Errorf("cache: unknown backend %q", cfg.Backend)
	}
}
