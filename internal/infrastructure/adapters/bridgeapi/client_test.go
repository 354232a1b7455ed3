package bridgeapi

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/rail-service/bridge_service/internal/domain/errors"
	"github.com/rail-service/bridge_service/pkg/retry"
)

const popularBody = `[
  {"address":"0x0000000000000000000000000000000000000000","chainId":"eip155:1","assetId":"eip155:1/slip44:60","symbol":"ETH","decimals":18,"name":"Ethereum"},
  {"chainId":1,"assetId":"eip155:1/erc20:0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48","symbol":"USDC","decimals":6,"name":"USD Coin"},
  {"chainId":"eip155:1","symbol":"BROKEN","decimals":6},
  {"chainId":"eip155:1","assetId":"eip155:1/erc20:0xdead","symbol":"NEG","decimals":-1}
]`

func fastRetries() Option {
	return WithRetryPolicy(retry.Policy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1})
}

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	cfg := Config{BaseURL: server.URL + "/", ClientID: "extension", ClientVersion: "13.2.0", RequestsPerSecond: 100}
	return NewClient(cfg, zap.NewNop(), append([]Option{fastRetries()}, opts...)...)
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(Config{ClientID: "extension"}, nil)
	assert.Equal(t, DefaultBaseURL, client.config.BaseURL)
	assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	assert.Equal(t, DefaultBaseURL+PopularTokensPath, client.URL(PopularTokensPath))
}

func TestFetchPopularTokens(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, PopularTokensPath, r.URL.Path)
		assert.Equal(t, "extension", r.Header.Get(HeaderClientID))
		assert.Equal(t, "13.2.0", r.Header.Get(HeaderClientVersion))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"chainIds":["eip155:1"],"includeAssets":["eip155:1/slip44:60"]}`, string(body))

		w.Write([]byte(popularBody))
	})

	assets, err := client.FetchPopularTokens(context.Background(), PopularTokensRequest{
		ChainIDs:      []string{"eip155:1"},
		IncludeAssets: []string{"eip155:1/slip44:60"},
	})
	require.NoError(t, err)
	require.Len(t, assets, 2)

	assert.Equal(t, "ETH", assets[0].Symbol)
	assert.Equal(t, int32(18), assets[0].Decimals)
	assert.Equal(t, "USDC", assets[1].Symbol)
	assert.Equal(t, "eip155:1", assets[1].ChainID.String())
	assert.Equal(t, "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", assets[1].Address)
}

func TestFetchTokensBySearchQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SearchTokensPath, r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"chainIds":["eip155:10"],"after":"cursor-1","query":"usd"}`, string(body))

		w.Write([]byte(`{"data":[{"chainId":"eip155:10","assetId":"eip155:10/erc20:0x0b2c639c533813f4aa9d7837caf62653d097ff85","symbol":"USDC","decimals":6},{"bogus":true}],"pageInfo":{"hasNextPage":true,"endCursor":"cursor-2"}}`))
	})

	result, err := client.FetchTokensBySearchQuery(context.Background(), SearchTokensRequest{
		ChainIDs: []string{"eip155:10"},
		Query:    "usd",
		After:    "cursor-1",
	})
	require.NoError(t, err)
	require.Len(t, result.Data, 1)
	assert.True(t, result.PageInfo.HasNextPage)
	assert.Equal(t, "cursor-2", result.PageInfo.EndCursor)
}

func TestClientErrors(t *testing.T) {
	t.Run("client error is not retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"BAD_REQUEST","message":"chainIds must not be empty"}`))
		})

		_, err := client.FetchPopularTokens(context.Background(), PopularTokensRequest{})
		var apiErr *ErrorResponse
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "chainIds must not be empty", apiErr.Message)
		assert.False(t, apiErr.IsRetryable())
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("server error is retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) < 3 {
				http.Error(w, "upstream unavailable", http.StatusBadGateway)
				return
			}
			w.Write([]byte(`[]`))
		})

		assets, err := client.FetchPopularTokens(context.Background(), PopularTokensRequest{ChainIDs: []string{"eip155:1"}})
		require.NoError(t, err)
		assert.Empty(t, assets)
		assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("malformed body is not retried", func(t *testing.T) {
		var calls int32
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.Write([]byte(`{"not":"an array"}`))
		})

		_, err := client.FetchPopularTokens(context.Background(), PopularTokensRequest{})
		assert.ErrorIs(t, err, ErrMalformedResponse)
		assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("cancelled context", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`[]`))
		})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.FetchPopularTokens(ctx, PopularTokensRequest{})
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("open breaker reports service unavailable", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}, WithRetryPolicy(retry.Policy{Multiplier: 1}))

		var err error
		for i := 0; i < 7; i++ {
			_, err = client.FetchPopularTokens(context.Background(), PopularTokensRequest{})
		}
		assert.True(t, apperrors.IsServiceUnavailable(err))
	})
}

func TestErrorResponse(t *testing.T) {
	assert.True(t, (&ErrorResponse{StatusCode: 404}).IsNotFound())
	assert.True(t, (&ErrorResponse{StatusCode: 429}).IsRateLimited())
	assert.True(t, (&ErrorResponse{StatusCode: 429}).IsRetryable())
	assert.True(t, (&ErrorResponse{StatusCode: 500}).IsRetryable())
	assert.Contains(t, (&ErrorResponse{StatusCode: 500, Message: "boom"}).Error(), "boom")
}
