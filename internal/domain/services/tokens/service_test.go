package tokens

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/domain/entities"
	"github.com/rail-service/bridge_service/internal/domain/services/responsecache"
	"github.com/rail-service/bridge_service/internal/infrastructure/adapters/bridgeapi"
	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
)

type fakeClient struct {
	popular       []entities.Asset
	search        map[string]*entities.TokenSearchResult
	err           error
	popularCalls  int
	searchCalls   int
	lastPopular   bridgeapi.PopularTokensRequest
	lastSearchReq bridgeapi.SearchTokensRequest
}

func (f *fakeClient) FetchPopularTokens(ctx context.Context, req bridgeapi.PopularTokensRequest) ([]entities.Asset, error) {
	f.popularCalls++
	f.lastPopular = req
	return f.popular, f.err
}

func (f *fakeClient) FetchTokensBySearchQuery(ctx context.Context, req bridgeapi.SearchTokensRequest) (*entities.TokenSearchResult, error) {
	f.searchCalls++
	f.lastSearchReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.search[req.After], nil
}

func (f *fakeClient) URL(path string) string {
	return "https://bridge.test" + path
}

func newService(client *fakeClient) (*Service, *cache.MemoryStorage) {
	store := cache.NewMemoryStorage(zap.NewNop())
	return NewService(client, responsecache.New(store, zap.NewNop()), zap.NewNop()), store
}

func TestGetPopularAssets(t *testing.T) {
	client := &fakeClient{popular: []entities.Asset{{Symbol: "ETH", ChainID: "eip155:1", Decimals: 18}}}
	svc, store := newService(client)
	ctx := context.Background()

	first := svc.GetPopularAssets(ctx, PopularRequest{ChainIDs: []string{"0x1"}})
	second := svc.GetPopularAssets(ctx, PopularRequest{ChainIDs: []string{"eip155:1"}})

	require.Len(t, first, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, client.popularCalls, "second call is served from cache")
	assert.Equal(t, []string{"eip155:1"}, client.lastPopular.ChainIDs)
	assert.Equal(t, 1, store.Len())
}

func TestGetPopularAssetsErrorReturnsEmpty(t *testing.T) {
	client := &fakeClient{err: errors.New("bridge API error [502]")}
	svc, store := newService(client)

	assets := svc.GetPopularAssets(context.Background(), PopularRequest{ChainIDs: []string{"eip155:1"}})
	assert.NotNil(t, assets)
	assert.Empty(t, assets)
	assert.Equal(t, 0, store.Len())

	assert.Empty(t, svc.GetPopularAssets(context.Background(), PopularRequest{}))
	assert.Equal(t, 1, client.popularCalls)
}

func TestSearchAssetsCachesPagesUnderOneEntry(t *testing.T) {
	client := &fakeClient{search: map[string]*entities.TokenSearchResult{
		"": {
			Data:     []entities.Asset{{Symbol: "USDC"}},
			PageInfo: entities.PageInfo{HasNextPage: true, EndCursor: "c1"},
		},
		"c1": {
			Data:     []entities.Asset{{Symbol: "USDT"}},
			PageInfo: entities.PageInfo{HasNextPage: false},
		},
	}}
	svc, store := newService(client)
	ctx := context.Background()

	page1 := svc.SearchAssets(ctx, SearchRequest{ChainIDs: []string{"eip155:1"}, Query: "usd"})
	page2 := svc.SearchAssets(ctx, SearchRequest{ChainIDs: []string{"eip155:1"}, Query: "usd", After: page1.PageInfo.EndCursor})
	again := svc.SearchAssets(ctx, SearchRequest{ChainIDs: []string{"eip155:1"}, Query: "usd", After: "c1"})

	assert.Equal(t, "USDC", page1.Data[0].Symbol)
	assert.Equal(t, "USDT", page2.Data[0].Symbol)
	assert.Equal(t, page2, again)
	assert.Equal(t, 2, client.searchCalls)
	assert.Equal(t, "c1", client.lastSearchReq.After)
	assert.Equal(t, 1, store.Len())
}

func TestSearchAssetsErrorReturnsEmpty(t *testing.T) {
	svc, _ := newService(&fakeClient{err: context.DeadlineExceeded})

	result := svc.SearchAssets(context.Background(), SearchRequest{ChainIDs: []string{"eip155:1"}, Query: "x"})
	assert.NotNil(t, result.Data)
	assert.Empty(t, result.Data)
	assert.False(t, result.PageInfo.HasNextPage)
}
