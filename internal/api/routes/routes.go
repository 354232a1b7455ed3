package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/rail-service/bridge_service/internal/api/handlers"
	"github.com/rail-service/bridge_service/internal/api/middleware"
	"github.com/rail-service/bridge_service/internal/infrastructure/di"
)

// SetupRoutes configures all application routes
func SetupRoutes(container *di.Container) *gin.Engine {
	if container.Config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	handlers.RegisterValidators()

	router := gin.New()

	// Global middleware - order matters
	router.Use(middleware.RequestID())
	router.Use(middleware.Tracing())
	router.Use(middleware.RequestSizeLimit())
	router.Use(middleware.Logger(container.Logger, container.Metrics))
	router.Use(middleware.Recovery(container.Logger))
	router.Use(middleware.CORS(container.Config.Server.AllowedOrigins))
	router.Use(middleware.SecurityHeaders())

	coreHandlers := container.GetCoreHandlers()
	bridgeHandlers := container.GetBridgeHandlers()

	// Health checks
	router.GET("/health", coreHandlers.Health)
	router.GET("/ready", coreHandlers.Ready)
	router.GET("/metrics", coreHandlers.Metrics)

	v1 := router.Group("/api/v1")
	v1.Use(middleware.RateLimit(container.RateLimiter))
	{
		bridge := v1.Group("/bridge")
		{
			bridge.POST("/tokens/popular", bridgeHandlers.PopularTokens)
			bridge.POST("/tokens/search", bridgeHandlers.SearchTokens)
			bridge.POST("/slippage", bridgeHandlers.Slippage)
			bridge.GET("/price-impact", bridgeHandlers.PriceImpact)
			bridge.POST("/quotes/metadata", bridgeHandlers.QuoteMetadata)
			bridge.POST("/quotes/sort", bridgeHandlers.SortQuotes)
			bridge.DELETE("/cache", middleware.AdminAuth(container.Config.Server.AdminTokenSecret), bridgeHandlers.ClearCache)
		}
	}

	return router
}
