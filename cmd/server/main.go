package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/bootstrap"
	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/infrastructure/config"
	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/interfaces/http/handler"
	"github.com/dealbridge/gateway/internal/interfaces/http/middleware"
	"github.com/dealbridge/gateway/internal/interfaces/http/router"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	if cfg.App.Version == "" {
		cfg.App.Version = version
	}

	// Initialize logger
	log, err := bootstrap.NewLogger(cfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting DealBridge gateway",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", cfg.App.Version),
		zap.String("port", cfg.HTTP.Port),
	)
	if cfg.App.APIKey == "" {
		log.Warn("No API key configured, every /api request will be rejected")
	}

	ctx := context.Background()

	// Telemetry
	tel, err := bootstrap.NewTelemetry(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	bridged, err := tel.Logger(cfg, log)
	if err != nil {
		log.Fatal("Failed to attach OTLP log export", zap.Error(err))
	}
	log = bridged

	// Remote systems
	adapters, err := bootstrap.NewAdapters(cfg)
	if err != nil {
		if errors.Is(err, integration.ErrNotConfigured) {
			log.Fatal("Remote system credentials are missing; set JIRA_BASE_URL, JIRA_EMAIL, JIRA_API_TOKEN and PIPEDRIVE_API_TOKEN", zap.Error(err))
		}
		log.Fatal("Failed to configure adapters", zap.Error(err))
	}

	defaults, err := bootstrap.SyncDefaults(cfg)
	if err != nil {
		log.Fatal("Invalid sync defaults", zap.Error(err))
	}

	store, err := bootstrap.NewIdempotencyStore(ctx, cfg)
	if err != nil {
		log.Fatal("Failed to initialize webhook idempotency store", zap.Error(err))
	}
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		log.Info("Webhook idempotency enabled",
			zap.String("store", cfg.Webhook.DedupStore),
			zap.Duration("ttl", cfg.Webhook.DedupTTL),
		)
	}

	// Application services
	syncService := app.NewSyncService(adapters.Jira, adapters.Pipedrive, defaults, tel.Metrics, log)
	webhookService := app.NewWebhookService(adapters.Jira, adapters.Pipedrive, defaults, tel.Metrics, log,
		bootstrap.WebhookOptions(cfg, store)...)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	engine := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		APIKey:         cfg.App.APIKey,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		CORS:           corsCfg,
		Security:       security,
		RateLimiter:    limiter,
		TracingEnabled: tel.Tracer.IsEnabled(),
		MeterProvider:  tel.Meter,
	}, router.Handlers{
		Health:    handler.NewSystemHandler(cfg.App.Name, cfg.App.Version).Health,
		Jira:      handler.NewJiraHandler(adapters.Jira, cfg.Jira.DefaultProjectKey),
		Pipedrive: handler.NewPipedriveHandler(adapters.Pipedrive),
		Sync:      handler.NewSyncHandler(syncService),
		Webhooks:  handler.NewWebhookHandler(webhookService),
	}, log)

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited gracefully")

	_ = logger.Sync(log)
	if err := tel.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down telemetry", zap.Error(err))
	}
}
