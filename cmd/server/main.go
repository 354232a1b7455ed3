package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rail-service/bridge_service/internal/api/routes"
	"github.com/rail-service/bridge_service/internal/infrastructure/config"
	"github.com/rail-service/bridge_service/internal/infrastructure/di"
	"github.com/rail-service/bridge_service/pkg/graceful"
	"github.com/rail-service/bridge_service/pkg/logger"
	"github.com/rail-service/bridge_service/pkg/tracing"
)

const rateLimiterCleanupInterval = 5 * time.Minute

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log := logger.New(cfg.LogLevel, cfg.Environment)
	defer log.Sync()

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.Config{
		Enabled:      cfg.Tracing.Enabled,
		CollectorURL: cfg.Tracing.CollectorURL,
		Environment:  cfg.Environment,
		SampleRate:   cfg.Tracing.SampleRate,
		Insecure:     cfg.Tracing.Insecure,
	}
	tracingShutdown, err := tracing.InitTracer(context.Background(), tracingConfig, log.Zap())
	if err != nil {
		log.Fatal("Failed to initialize tracing", "error", err)
	}

	// Initialize dependency injection container
	container, err := di.NewContainer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize container", "error", err)
	}
	log.Info("Cache storage ready", "store", cfg.Cache.Store, "prefix", cfg.Cache.KeyPrefix, "ttl", cfg.Cache.TTL().String())

	if err := container.CacheSweeper.Start(); err != nil {
		log.Fatal("Failed to start cache sweeper", "error", err)
	}

	router := routes.SetupRoutes(container)

	server := &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	// Start server in goroutine
	go func() {
		log.Info("Starting server",
			"port", cfg.Server.Port,
			"environment", cfg.Environment,
			"bridge_api", cfg.BridgeAPI.BaseURL,
		)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", "error", err)
		}
	}()

	// Drop idle per-IP limiters
	stopCleanup := make(chan struct{})
	go func() {
		ticker := time.NewTicker(rateLimiterCleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				container.RateLimiter.Cleanup()
			case <-stopCleanup:
				return
			}
		}
	}()

	shutdown := graceful.NewShutdownManager(server, log)
	shutdown.Register("rate_limiter_cleanup", graceful.Closer(func() error {
		close(stopCleanup)
		return nil
	}))
	shutdown.Register("cache_sweeper", container.CacheSweeper)
	shutdown.Register("cache_storage", graceful.Closer(container.Close))
	shutdown.Register("tracer", graceful.ShutdownFunc(tracingShutdown))

	shutdown.WaitForShutdown()
	log.Info("Server exited gracefully")
}
