package responsecache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
)

const popularURL = "https://bridge.api.cx.metamask.io/getTokens/popular"

type popularBody struct {
	ChainIDs      []string `json:"chainIds"`
	IncludeAssets []string `json:"includeAssets"`
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// flakyStorage fails the configured operations and delegates the rest
type flakyStorage struct {
	cache.Storage
	failSet    bool
	failRemove map[string]bool
	removed    []string
	mu         sync.Mutex
}

func (f *flakyStorage) Set(ctx context.Context, key string, value []byte) error {
	if f.failSet {
		return errors.New("quota exceeded")
	}
	return f.Storage.Set(ctx, key, value)
}

func (f *flakyStorage) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	f.removed = append(f.removed, key)
	f.mu.Unlock()
	if f.failRemove[key] {
		return errors.New("remove failed")
	}
	return f.Storage.Remove(ctx, key)
}

func newTestCache(t *testing.T) (*Cache, *cache.MemoryStorage, *fakeClock) {
	t.Helper()
	store := cache.NewMemoryStorage(zap.NewNop())
	clock := newFakeClock()
	return New(store, zap.NewNop(), WithClock(clock.Now)), store, clock
}

func assertGone(t *testing.T, store cache.Storage, key string) {
	t.Helper()
	_, err := store.Get(context.Background(), key)
	assert.ErrorIs(t, err, cache.ErrKeyNotFound)
}

func TestKey(t *testing.T) {
	c, _, _ := newTestCache(t)

	body := popularBody{ChainIDs: []string{"eip155:1", "eip155:10"}}
	k1, err := c.Key(popularURL, body)
	require.NoError(t, err)
	k2, err := c.Key(popularURL, popularBody{ChainIDs: []string{"eip155:1", "eip155:10"}})
	require.NoError(t, err)
	k3, err := c.Key(popularURL, popularBody{ChainIDs: []string{"eip155:10", "eip155:1"}})
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.True(t, strings.HasPrefix(k1, "bridgeCache:"+popularURL+":"))
	assert.Len(t, strings.TrimPrefix(k1, "bridgeCache:"+popularURL+":"), 64)

	m1, err := c.Key(popularURL, map[string]interface{}{"b": 1, "a": 2})
	require.NoError(t, err)
	m2, err := c.Key(popularURL, map[string]interface{}{"a": 2, "b": 1})
	require.NoError(t, err)
	assert.Equal(t, m1, m2)

	_, err = c.Key(popularURL, func() {})
	assert.Error(t, err)
}

func TestUpdateThenRetrieve(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()
	key, _ := c.Key(popularURL, popularBody{ChainIDs: []string{"eip155:1"}})

	response := []map[string]interface{}{{"symbol": "USDC", "decimals": 6}}
	require.NoError(t, c.Update(ctx, response, key, ""))

	raw, ok := c.Retrieve(ctx, key, DefaultPage)
	require.True(t, ok)
	assert.JSONEq(t, `[{"symbol":"USDC","decimals":6}]`, string(raw))

	var decoded []map[string]interface{}
	require.True(t, c.RetrieveInto(ctx, key, "", &decoded))
	assert.Equal(t, "USDC", decoded[0]["symbol"])
}

func TestRetrieveMissingEntryOrPage(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	_, ok := c.Retrieve(ctx, "bridgeCache:nothing:here", DefaultPage)
	assert.False(t, ok)

	require.NoError(t, c.Update(ctx, []int{1}, "bridgeCache:k", DefaultPage))
	_, ok = c.Retrieve(ctx, "bridgeCache:k", "cursor-2")
	assert.False(t, ok)

	_, err := store.Get(ctx, "bridgeCache:k")
	assert.NoError(t, err, "a missing page keeps the entry")
}

func TestStalenessIsMeasuredFromCreation(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()
	key := "bridgeCache:search"

	require.NoError(t, c.Update(ctx, []string{"page one"}, key, DefaultPage))
	clock.Advance(10 * time.Minute)
	require.NoError(t, c.Update(ctx, []string{"page two"}, key, "cursor-1"))

	clock.Advance(4*time.Minute + 59*time.Second)
	_, ok := c.Retrieve(ctx, key, "cursor-1")
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Retrieve(ctx, key, "cursor-1")
	assert.False(t, ok)
	assertGone(t, store, key)
}

func TestTamperedPageIsInvalidated(t *testing.T) {
	c, store, clock := newTestCache(t)
	ctx := context.Background()
	key := "bridgeCache:tampered"

	e := newEntry(clock.Now().UnixMilli())
	e.Pages[DefaultPage] = cachedPage{CachedResponse: []byte(`{"symbol":"EVIL"}`), Hash: digest([]byte(`{"symbol":"USDC"}`))}
	data, err := encodeEntry(e)
	require.NoError(t, err)
	require.NoError(t, store.Set(ctx, key, data))

	_, ok := c.Retrieve(ctx, key, DefaultPage)
	assert.False(t, ok)
	assertGone(t, store, key)
}

func TestUnreadableEntryIsInvalidated(t *testing.T) {
	c, store, _ := newTestCache(t)
	ctx := context.Background()

	for _, payload := range []string{`not json`, `{"default":{"cachedResponse":1,"hash":"x"}}`} {
		require.NoError(t, store.Set(ctx, "bridgeCache:broken", []byte(payload)))
		_, ok := c.Retrieve(ctx, "bridgeCache:broken", DefaultPage)
		assert.False(t, ok)
		assertGone(t, store, "bridgeCache:broken")
	}
}

func TestUpdateWriteFailureRemovesKey(t *testing.T) {
	store := &flakyStorage{Storage: cache.NewMemoryStorage(zap.NewNop()), failSet: true}
	c := New(store, zap.NewNop())

	err := c.Update(context.Background(), []int{1}, "bridgeCache:k", DefaultPage)
	assert.Error(t, err)
	assert.Equal(t, []string{"bridgeCache:k"}, store.removed)
}

func TestUpdateRejectsReservedPage(t *testing.T) {
	c, _, _ := newTestCache(t)
	assert.Error(t, c.Update(context.Background(), []int{1}, "bridgeCache:k", "timestamp"))
}

func TestDoCoalescesFetches(t *testing.T) {
	c, _, _ := newTestCache(t)
	var calls int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (interface{}, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return []string{"ETH", "USDC"}, nil
	}

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw, err := c.Do(context.Background(), "bridgeCache:popular", "", fetch)
			if err == nil {
				results[i] = string(raw)
			}
		}(i)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		assert.Equal(t, `["ETH","USDC"]`, r)
	}
}

func TestDoDoesNotCacheErrors(t *testing.T) {
	c, _, _ := newTestCache(t)
	ctx := context.Background()
	calls := 0

	_, err := c.Do(ctx, "bridgeCache:k", "", func(ctx context.Context) (interface{}, error) {
		calls++
		return nil, errors.New("502")
	})
	assert.Error(t, err)

	got, err := Fetch(ctx, c, "bridgeCache:k", "", func(ctx context.Context) ([]int, error) {
		calls++
		return []int{7}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 2, calls)

	got, err = Fetch(ctx, c, "bridgeCache:k", "", func(ctx context.Context) ([]int, error) {
		calls++
		return nil, errors.New("should be served from cache")
	})
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 2, calls)
}
