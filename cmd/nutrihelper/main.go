package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"nutrihelper/internal/amqp"
	"nutrihelper/internal/api"
	"nutrihelper/internal/backend"
	"nutrihelper/internal/cache"
	"nutrihelper/internal/cli"
	"nutrihelper/internal/core"
	apphttp "nutrihelper/internal/http"
	applog "nutrihelper/internal/log"
	"nutrihelper/internal/openfoodfacts"
	"nutrihelper/internal/services"
)

const sessionPurgeInterval = 10 * time.Minute

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)

	ctx := context.Background()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", applog.FieldError, err)
		os.Exit(1)
	}
	stores, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Slog()).CreateStore(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize session store", applog.FieldError, err, "backend", cfg.SessionBackend)
		os.Exit(1)
	}

	apiClient := api.NewClient(cfg.BackendURL, cfg.BackendTimeout,
		api.WithLogger(logger.WithComponent(applog.ComponentAPI).Slog()))
	foods := openfoodfacts.NewClient(cfg.OpenFoodFactsURL, cfg.BackendTimeout)

	// Entry events are optional; without a broker nothing reaches the ledger.
	var (
		publisher  services.EntryPublisher
		amqpClient *amqp.Client
	)
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			logger.WithComponent(applog.ComponentAMQP).Slog())
		if err != nil {
			logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
			os.Exit(1)
		}
		publisher = amqpClient
		logger.Info("AMQP publishing enabled", "exchange", cfg.AMQPExchange)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided, entry events are not published")
	}

	chartCache := cache.NewLRUCache[core.MonthOverview](cfg.ChartCacheSize, cfg.ChartCacheTTL)
	cacheManager := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	cacheManager.Register(chartCache)
	cacheManager.StartCleanup(cfg.ChartCacheTTL)

	authSvc := services.NewAuthService(apiClient, stores.Store, cfg.SessionTTL,
		logger.WithComponent(applog.ComponentSession).Slog())
	chartSvc := services.NewChartService(apiClient, chartCache, logger.WithComponent(applog.ComponentChart).Slog())
	// Snapshots written by the worker back the chart while the backend is down.
	if snaps, ok := stores.Store.(services.SnapshotReader); ok {
		chartSvc.WithSnapshotFallback(snaps)
		logger.Info("Chart snapshot fallback enabled")
	}
	entrySvc := services.NewEntryService(apiClient, publisher, chartSvc, logger.WithComponent(applog.ComponentEntries).Slog())
	progressSvc := services.NewProgressService(apiClient, cfg.DisplayLocation())

	srv := apphttp.NewServer(apphttp.Options{
		Addr:      ":" + cfg.Port,
		Auth:      authSvc,
		Entries:   entrySvc,
		Charts:    chartSvc,
		Progress:  progressSvc,
		Recipes:   services.NewRecipeService(apiClient, entrySvc, stores.Store, logger.WithComponent(applog.ComponentRecipes).Slog()),
		Lookup:    services.NewLookupService(apiClient, foods),
		Dashboard: services.NewDashboardService(chartSvc, progressSvc),
		ReadyChecks: []apphttp.ReadyCheck{
			{Name: "sessions", Check: stores.Store.Ping},
			{Name: "backend", Check: apiClient.Ping},
		},
		CookieSecure:       cfg.CookieSecure,
		CORSOrigins:        cfg.CORSOrigins,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		Logger:             logger.WithComponent(applog.ComponentHTTP),
	})

	shutdownCtx, done := cli.GracefulShutdown(logger.Slog(), 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("Failed to close AMQP client", applog.FieldError, err)
			}
		}
		if stores.Cleanup != nil {
			if err := stores.Cleanup(); err != nil {
				logger.Warn("Failed to close session store", applog.FieldError, err)
			}
		}
	})

	go purgeSessions(shutdownCtx, authSvc, logger)

	logger.Info("Starting nutrihelper server",
		"port", cfg.Port,
		"session_backend", cfg.SessionBackend,
		"backend_url", cfg.BackendURL)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}

// purgeSessions drops expired sessions until ctx is cancelled.
func purgeSessions(ctx context.Context, auth *services.AuthService, logger *applog.Logger) {
	ticker := time.NewTicker(sessionPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := auth.PurgeExpired(ctx)
			if err != nil {
				logger.Warn("Session purge failed", applog.FieldError, err)
				continue
			}
			if n > 0 {
				logger.Info("Purged expired sessions", "count", n)
			}
		}
	}
}
