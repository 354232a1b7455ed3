package cache

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

// MemoryStorage implements Storage in process memory using go-cache.
// Entries never expire on their own; the response cache decides staleness.
type MemoryStorage struct {
	items  *gocache.Cache
	logger *zap.Logger
}

func NewMemoryStorage(logger *zap.Logger) *MemoryStorage {
	return &MemoryStorage{
		items:  gocache.New(gocache.NoExpiration, 10*time.Minute),
		logger: logger,
	}
}

func (m *MemoryStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	v, ok := m.items.Get(key)
	if !ok {
		return nil, fmt.Errorf("key '%s': %w", key, ErrKeyNotFound)
	}
	data, ok := v.([]byte)
	if !ok {
		return nil, fmt.Errorf("key '%s' holds %T, not bytes", key, v)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStorage) Set(ctx context.Context, key string, value []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.items.Set(key, append([]byte(nil), value...), gocache.NoExpiration)
	return nil
}

func (m *MemoryStorage) Remove(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.items.Delete(key)
	return nil
}

func (m *MemoryStorage) KeysWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var keys []string
	for k := range m.items.Items() {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (m *MemoryStorage) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStorage) Close() error {
	m.items.Flush()
	return nil
}

// Len returns the number of stored keys
func (m *MemoryStorage) Len() int {
	return m.items.ItemCount()
}
