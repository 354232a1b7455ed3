package responsecache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
)

func TestClearAll(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Update(ctx, []int{1}, "bridgeCache:https://x/getTokens/popular:old", DefaultPage))
	clock.Advance(16 * time.Minute)
	require.NoError(t, c.Update(ctx, []int{2}, "bridgeCache:https://x/getTokens/popular:fresh", DefaultPage))
	require.NoError(t, c.Update(ctx, []int{3}, "bridgeCache:https://x/getTokens/search:fresh", DefaultPage))
	require.NoError(t, store.Set(ctx, "bridgeCache:garbage", []byte("{")))
	require.NoError(t, store.Set(ctx, "otherCache:search", []byte("{}")))

	result, err := c.ClearAll(ctx)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Scanned)
	assert.Equal(t, []string{
		"bridgeCache:garbage",
		"bridgeCache:https://x/getTokens/popular:old",
		"bridgeCache:https://x/getTokens/search:fresh",
	}, result.Removed)

	_, err = store.Get(ctx, "bridgeCache:https://x/getTokens/popular:fresh")
	assert.NoError(t, err)
	_, err = store.Get(ctx, "otherCache:search")
	assert.NoError(t, err)
}

func TestClearAllCollectsFailures(t *testing.T) {
	mem := cache.NewMemoryStorage(zap.NewNop())
	store := &flakyStorage{Storage: mem, failRemove: map[string]bool{"bridgeCache:search-a": true}}
	c := New(store, zap.NewNop())
	ctx := context.Background()

	for _, key := range []string{"bridgeCache:search-a", "bridgeCache:search-b", "bridgeCache:search-c"} {
		require.NoError(t, mem.Set(ctx, key, []byte("{}")))
	}

	result, err := c.ClearAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bridgeCache:search-a")
	assert.Equal(t, []string{"bridgeCache:search-b", "bridgeCache:search-c"}, result.Removed)
	assert.Equal(t, 1, mem.Len())
}
