package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
	"github.com/rail-service/bridge_service/internal/infrastructure/config"
	"github.com/rail-service/bridge_service/internal/infrastructure/di"
	"github.com/rail-service/bridge_service/pkg/auth"
	"github.com/rail-service/bridge_service/pkg/logger"
)

const upstreamTokens = `[{"chainId":"eip155:10","assetId":"eip155:10/erc20:0x0b2c639c533813f4aa9d7837caf62653d097ff85","symbol":"USDC","decimals":6,"name":"USD Coin"}]`

func newTestRouter(t *testing.T, rateLimit int, mutate ...func(*config.Config)) (http.Handler, *atomic.Int32) {
	t.Helper()

	var upstreamCalls atomic.Int32
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		upstreamCalls.Add(1)
		w.Write([]byte(upstreamTokens))
	}))
	t.Cleanup(upstream.Close)

	cfg := &config.Config{
		Environment: "test",
		Server:      config.ServerConfig{RateLimitPerMin: rateLimit},
		BridgeAPI: config.BridgeAPIConfig{
			BaseURL:           upstream.URL,
			ClientID:          "extension",
			Timeout:           5,
			RequestsPerSecond: 100,
		},
		Cache:  config.CacheConfig{Store: "memory", KeyPrefix: "bridgeCache", TTLMinutes: 15},
		Quotes: config.QuotesConfig{MaxReturnDifference: 0.35, RefreshIntervalSeconds: 30},
	}
	for _, m := range mutate {
		m(cfg)
	}
	container := di.NewContainerWithStorage(cfg, logger.NewNop(), cache.NewMemoryStorage(zap.NewNop()))
	t.Cleanup(func() { container.Close() })

	return SetupRoutes(container), &upstreamCalls
}

func serve(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestPopularTokensServedFromCache(t *testing.T) {
	router, calls := newTestRouter(t, 300)

	for i := 0; i < 3; i++ {
		w := serve(router, http.MethodPost, "/api/v1/bridge/tokens/popular", `{"chainIds":["10"]}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"symbol":"USDC"`)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	}
	assert.Equal(t, int32(1), calls.Load())

	w := serve(router, http.MethodDelete, "/api/v1/bridge/cache", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"scanned":1`)

	// fresh popular lists survive the sweep; chain ids are keyed after CAIP normalization
	serve(router, http.MethodPost, "/api/v1/bridge/tokens/popular", `{"chainIds":["eip155:10"]}`)
	assert.Equal(t, int32(1), calls.Load())
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	router, _ := newTestRouter(t, 300)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/ready", "").Code)

	serve(router, http.MethodGet, "/api/v1/bridge/price-impact?value=0.01", "")
	w := serve(router, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "bridge_service_http_requests_total")
}

func TestRateLimitAppliesToAPI(t *testing.T) {
	router, _ := newTestRouter(t, 1)

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/api/v1/bridge/price-impact?value=0.01", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(router, http.MethodGet, "/api/v1/bridge/price-impact?value=0.01", "").Code)
	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health", "").Code)
}

func TestCacheRouteRequiresAdminToken(t *testing.T) {
	const secret = "s3cret"
	router, _ := newTestRouter(t, 300, func(c *config.Config) { c.Server.AdminTokenSecret = secret })

	assert.Equal(t, http.StatusUnauthorized, serve(router, http.MethodDelete, "/api/v1/bridge/cache", "").Code)

	token, _, err := auth.GenerateToken("ops", auth.RoleAdmin, secret, time.Minute)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/bridge/cache", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t, 300)
	assert.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/api/v1/bridge/unknown", "").Code)
}
