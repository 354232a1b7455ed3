package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/infrastructure/config"
)

func newTestRedis(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewRedisStorage(&config.RedisConfig{URL: "redis://" + mr.Addr()}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func TestStorageContract(t *testing.T) {
	redisStore, _ := newTestRedis(t)

	stores := map[string]Storage{
		"memory": NewMemoryStorage(zap.NewNop()),
		"redis":  redisStore,
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "bridgeCache:missing")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			require.NoError(t, store.Set(ctx, "bridgeCache:a", []byte(`{"timestamp":1}`)))
			require.NoError(t, store.Set(ctx, "bridgeCache:b", []byte(`{"timestamp":2}`)))
			require.NoError(t, store.Set(ctx, "other:c", []byte(`{}`)))

			got, err := store.Get(ctx, "bridgeCache:a")
			require.NoError(t, err)
			assert.JSONEq(t, `{"timestamp":1}`, string(got))

			keys, err := store.KeysWithPrefix(ctx, "bridgeCache:")
			require.NoError(t, err)
			assert.ElementsMatch(t, []string{"bridgeCache:a", "bridgeCache:b"}, keys)

			require.NoError(t, store.Remove(ctx, "bridgeCache:a"))
			require.NoError(t, store.Remove(ctx, "bridgeCache:a"))
			_, err = store.Get(ctx, "bridgeCache:a")
			assert.ErrorIs(t, err, ErrKeyNotFound)

			assert.NoError(t, store.Ping(ctx))
		})
	}
}

func TestMemoryStorageCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStorage(zap.NewNop())

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))

	got[1] = 'z'
	again, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStorageHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStorage(zap.NewNop())
	assert.ErrorIs(t, store.Set(ctx, "k", []byte("v")), context.Canceled)
	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRedisStorageFailsWhenUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisStorage(&config.RedisConfig{URL: "redis://" + addr}, zap.NewNop())
	assert.Error(t, err)
}

func TestNewStorageSelectsBackend(t *testing.T) {
	cfg := &config.Config{Cache: config.CacheConfig{Store: "memory"}}
	store, err := NewStorage(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryStorage{}, store)

	cfg.Cache.Store = "disk"
	_, err = NewStorage(cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestEscapeGlob(t *testing.T) {
	assert.Equal(t, "bridgeCache:", escapeGlob("bridgeCache:"))
	assert.Equal(t, `a\*b\?\[c\]`, escapeGlob("a*b?[c]"))
}
