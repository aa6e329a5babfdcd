// Package bootstrap turns a loaded configuration into the gateway's runtime
// components. It is shared by the server and gatewayctl binaries.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
	"github.com/dealbridge/gateway/internal/infrastructure/cache"
	"github.com/dealbridge/gateway/internal/infrastructure/config"
	"github.com/dealbridge/gateway/internal/infrastructure/jira"
	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/infrastructure/pipedrive"
	"github.com/dealbridge/gateway/internal/infrastructure/telemetry"
)

// NewLogger builds the zap logger described by cfg.Log
func NewLogger(cfg *config.Config, opts ...logger.Option) (*zap.Logger, error) {
	return logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.IsProduction(),
	}, opts...)
}

// Adapters are the two remote systems of record
type Adapters struct {
	Jira      *jira.Adapter
	Pipedrive *pipedrive.Adapter
}

// NewAdapters builds both adapters. Missing credentials match integration.ErrNotConfigured.
func NewAdapters(cfg *config.Config) (*Adapters, error) {
	jiraCfg := jira.NewConfig(cfg.Jira.BaseURL, cfg.Jira.Email, cfg.Jira.APIToken)
	jiraCfg.DefaultProjectKey = cfg.Jira.DefaultProjectKey
	jiraCfg.DefaultIssueType = cfg.Jira.DefaultIssueType
	jiraCfg.DefaultPriority = cfg.Jira.DefaultPriority
	jiraCfg.TimeoutSeconds = int(cfg.Jira.Timeout.Seconds())
	tracker, err := jira.NewAdapter(jiraCfg)
	if err != nil {
		return nil, fmt.Errorf("configure jira adapter: %w", err)
	}

	pdCfg := pipedrive.NewConfig(cfg.Pipedrive.APIToken)
	pdCfg.APIBaseURL = cfg.Pipedrive.BaseURL
	pdCfg.DefaultCurrency = cfg.Pipedrive.DefaultCurrency
	pdCfg.TimeoutSeconds = int(cfg.Pipedrive.Timeout.Seconds())
	crm, err := pipedrive.NewAdapter(pdCfg)
	if err != nil {
		return nil, fmt.Errorf("configure pipedrive adapter: %w", err)
	}

	return &Adapters{Jira: tracker, Pipedrive: crm}, nil
}

// SyncDefaults maps the sync, jira and pipedrive sections onto the service defaults
func SyncDefaults(cfg *config.Config) (app.SyncDefaults, error) {
	value, err := cfg.Sync.Value()
	if err != nil {
		return app.SyncDefaults{}, err
	}
	defaults := app.DefaultSyncDefaults()
	defaults.JQL = cfg.Sync.JQL
	defaults.DefaultValue = value
	defaults.Currency = cfg.Pipedrive.DefaultCurrency
	defaults.ProjectKey = cfg.Jira.DefaultProjectKey
	defaults.IssueType = cfg.Jira.DefaultIssueType
	defaults.Priority = cfg.Jira.DefaultPriority
	defaults.WonIssuePriority = cfg.Sync.WonIssuePriority
	defaults.IssuePageSize = cfg.Sync.IssuePageSize
	defaults.DealPageSize = cfg.Sync.DealPageSize
	return defaults, nil
}

// Telemetry holds the tracer, meter and log providers
type Telemetry struct {
	Tracer  *telemetry.TracerProvider
	Meter   *telemetry.MeterProvider
	Logs    *telemetry.LoggerProvider
	Metrics *telemetry.SyncMetrics
}

// NewTelemetry starts the providers selected by cfg.Telemetry.
// Metrics is nil when metrics are disabled.
func NewTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Telemetry, error) {
	tc := cfg.Telemetry
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.ExportInterval,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	lp, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		ServiceVersion:    cfg.App.Version,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		_ = mp.Shutdown(ctx)
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	t := &Telemetry{Tracer: tp, Meter: mp, Logs: lp}
	if mp.IsEnabled() {
		t.Metrics, err = telemetry.NewSyncMetrics(mp.Meter(tc.ServiceName))
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("create sync metrics: %w", err)
		}
	}
	return t, nil
}

// Logger returns base unchanged when log export is off. Otherwise it rebuilds the
// configured logger with an OTLP core teed in at the configured level.
func (t *Telemetry) Logger(cfg *config.Config, base *zap.Logger) (*zap.Logger, error) {
	if !t.Logs.IsEnabled() {
		return base, nil
	}
	return NewLogger(cfg, logger.WithTee(t.Logs.Core(logger.ParseLevel(cfg.Log.Level))))
}

// Shutdown flushes every provider. Logs go last so shutdown messages still export.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return errors.Join(
		t.Meter.Shutdown(ctx),
		t.Tracer.Shutdown(ctx),
		t.Logs.Shutdown(ctx),
	)
}

// NewIdempotencyStore builds the webhook dedup store, or returns nil when dedup is off
func NewIdempotencyStore(ctx context.Context, cfg *config.Config) (shared.IdempotencyStore, error) {
	if !cfg.Webhook.DedupEnabled {
		return nil, nil
	}
	if cfg.Webhook.DedupStore == "redis" {
		store, err := cache.NewRedisStore(ctx, cache.RedisConfig{
			Addr:      cfg.Redis.Addr(),
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("connect idempotency store: %w", err)
		}
		return store, nil
	}
	return cache.NewMemoryStore(cache.DefaultCleanupInterval), nil
}

// WebhookOptions returns the reactor options for an optional idempotency store
func WebhookOptions(cfg *config.Config, store shared.IdempotencyStore) []app.WebhookOption {
	if store == nil {
		return nil
	}
	return []app.WebhookOption{app.WithIdempotency(store, shared.IdempotencyConfig{
		TTL:     cfg.Webhook.DedupTTL,
		Enabled: cfg.Webhook.DedupEnabled,
	})}
}
