package cache

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/infrastructure/config"
)

// ErrKeyNotFound is returned by Get when the key does not exist
var ErrKeyNotFound = errors.New("key not found")

// Storage is a persistent key-value store with prefix scans. The response
// cache owns the value encoding; stores only move bytes.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
	KeysWithPrefix(ctx context.Context, prefix string) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewStorage builds the store selected by cfg.Cache.Store
func NewStorage(cfg *config.Config, logger *zap.Logger) (Storage, error) {
	switch cfg.Cache.Store {
	case "redis":
		return NewRedisStorage(&cfg.Redis, logger)
	case "memory", "":
		return NewMemoryStorage(logger), nil
	default:
		return nil, fmt.Errorf("unknown cache store %q", cfg.Cache.Store)
	}
}
