package di

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rail-service/bridge_service/internal/api/handlers"
	"github.com/rail-service/bridge_service/internal/api/middleware"
	"github.com/rail-service/bridge_service/internal/domain/services/responsecache"
	"github.com/rail-service/bridge_service/internal/domain/services/tokens"
	"github.com/rail-service/bridge_service/internal/infrastructure/adapters/bridgeapi"
	"github.com/rail-service/bridge_service/internal/infrastructure/cache"
	"github.com/rail-service/bridge_service/internal/infrastructure/config"
	"github.com/rail-service/bridge_service/internal/workers/cache_sweeper"
	"github.com/rail-service/bridge_service/pkg/logger"
	"github.com/rail-service/bridge_service/pkg/metrics"
)

// Container holds all application dependencies
type Container struct {
	Config  *config.Config
	Logger  *logger.Logger
	ZapLog  *zap.Logger
	Metrics *metrics.Metrics

	// Storage and caching
	Storage       cache.Storage
	ResponseCache *responsecache.Cache

	// External services
	BridgeClient *bridgeapi.Client

	// Domain services
	TokenService *tokens.Service

	// Background workers
	CacheSweeper *cache_sweeper.Worker

	RateLimiter *middleware.RateLimiter
}

// NewContainer creates a new dependency injection container. The storage is
// opened here and must be released with Close.
func NewContainer(cfg *config.Config, log *logger.Logger) (*Container, error) {
	zapLog := log.Zap()
	m := metrics.New()

	storage, err := cache.NewStorage(cfg, zapLog)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache storage: %w", err)
	}

	return newContainer(cfg, log, m, storage), nil
}

// NewContainerWithStorage builds a container around an already opened store
func NewContainerWithStorage(cfg *config.Config, log *logger.Logger, storage cache.Storage) *Container {
	return newContainer(cfg, log, metrics.New(), storage)
}

func newContainer(cfg *config.Config, log *logger.Logger, m *metrics.Metrics, storage cache.Storage) *Container {
	zapLog := log.Zap()

	responseCache := responsecache.New(storage, zapLog,
		responsecache.WithPrefix(cfg.Cache.KeyPrefix),
		responsecache.WithTTL(cfg.Cache.TTL()),
		responsecache.WithMetrics(m),
	)

	bridgeClient := bridgeapi.NewClient(bridgeapi.Config{
		BaseURL:           cfg.BridgeAPI.BaseURL,
		ClientID:          cfg.BridgeAPI.ClientID,
		ClientVersion:     cfg.BridgeAPI.ClientVersion,
		Timeout:           time.Duration(cfg.BridgeAPI.Timeout) * time.Second,
		MaxRetries:        cfg.BridgeAPI.MaxRetries,
		RequestsPerSecond: cfg.BridgeAPI.RequestsPerSecond,
	}, zapLog, bridgeapi.WithMetrics(m))

	return &Container{
		Config:        cfg,
		Logger:        log,
		ZapLog:        zapLog,
		Metrics:       m,
		Storage:       storage,
		ResponseCache: responseCache,
		BridgeClient:  bridgeClient,
		TokenService:  tokens.NewService(bridgeClient, responseCache, zapLog),
		CacheSweeper:  cache_sweeper.NewWorker(responseCache, cfg.Cache.SweepSchedule, zapLog),
		RateLimiter:   middleware.NewRateLimiter(cfg.Server.RateLimitPerMin),
	}
}

// GetCoreHandlers returns health and metrics handlers
func (c *Container) GetCoreHandlers() *handlers.CoreHandlers {
	return handlers.NewCoreHandlers(c.Storage, c.Metrics, c.Logger)
}

// GetBridgeHandlers returns the bridge API handlers
func (c *Container) GetBridgeHandlers() *handlers.BridgeHandlers {
	return handlers.NewBridgeHandlers(c.TokenService, c.ResponseCache, handlers.QuoteSettings{
		MaxReturnDifference: c.Config.Quotes.MaxReturnDifference,
		RefreshInterval:     time.Duration(c.Config.Quotes.RefreshIntervalSeconds) * time.Second,
	}, c.Logger)
}

// Close releases the cache storage
func (c *Container) Close() error {
	return c.Storage.Close()
}
