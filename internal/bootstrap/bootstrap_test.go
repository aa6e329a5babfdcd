package bootstrap

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/infrastructure/cache"
	"github.com/dealbridge/gateway/internal/infrastructure/config"
)

func configuredDefaults() *config.Config {
	cfg := config.Default()
	cfg.Jira.BaseURL = "https://example.atlassian.net"
	cfg.Jira.Email = "ops@example.com"
	cfg.Jira.APIToken = "jira-token"
	cfg.Pipedrive.APIToken = "pd-token"
	return cfg
}

func TestNewAdapters(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		adapters, err := NewAdapters(configuredDefaults())
		require.NoError(t, err)
		assert.NotNil(t, adapters.Jira)
		assert.NotNil(t, adapters.Pipedrive)
	})

	t.Run("missing jira credentials", func(t *testing.T) {
		cfg := configuredDefaults()
		cfg.Jira.APIToken = ""
		_, err := NewAdapters(cfg)
		assert.ErrorIs(t, err, integration.ErrNotConfigured)
	})

	t.Run("missing pipedrive token", func(t *testing.T) {
		cfg := configuredDefaults()
		cfg.Pipedrive.APIToken = ""
		_, err := NewAdapters(cfg)
		assert.ErrorIs(t, err, integration.ErrNotConfigured)
	})
}

func TestSyncDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.DefaultValue = "250.75"
	cfg.Jira.DefaultProjectKey = "OPS"
	cfg.Pipedrive.DefaultCurrency = "EUR"

	defaults, err := SyncDefaults(cfg)
	require.NoError(t, err)

	assert.Equal(t, "status = Done", defaults.JQL)
	assert.True(t, defaults.DefaultValue.Equal(decimal.RequireFromString("250.75")))
	assert.Equal(t, "EUR", defaults.Currency)
	assert.Equal(t, "OPS", defaults.ProjectKey)
	assert.Equal(t, "Task", defaults.IssueType)
	assert.Equal(t, "Medium", defaults.Priority)
	assert.Equal(t, "High", defaults.WonIssuePriority)
	assert.Equal(t, 100, defaults.IssuePageSize)
	assert.Equal(t, 500, defaults.DealPageSize)
}

func TestSyncDefaults_InvalidValue(t *testing.T) {
	cfg := config.Default()
	cfg.Sync.DefaultValue = "lots"

	_, err := SyncDefaults(cfg)
	assert.Error(t, err)
}

func TestNewIdempotencyStore(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled by default", func(t *testing.T) {
		cfg := config.Default()
		store, err := NewIdempotencyStore(ctx, cfg)
		require.NoError(t, err)
		assert.Nil(t, store)
		assert.Nil(t, WebhookOptions(cfg, store))
	})

	t.Run("memory store", func(t *testing.T) {
		cfg := config.Default()
		cfg.Webhook.DedupEnabled = true
		cfg.Webhook.DedupTTL = time.Hour

		store, err := NewIdempotencyStore(ctx, cfg)
		require.NoError(t, err)
		defer store.Close()

		assert.IsType(t, &cache.MemoryStore{}, store)
		assert.Len(t, WebhookOptions(cfg, store), 1)
	})
}

func TestNewTelemetry_Disabled(t *testing.T) {
	tel, err := NewTelemetry(context.Background(), config.Default(), zap.NewNop())
	require.NoError(t, err)

	assert.False(t, tel.Tracer.IsEnabled())
	assert.False(t, tel.Meter.IsEnabled())
	assert.False(t, tel.Logs.IsEnabled())
	assert.Nil(t, tel.Metrics)

	base := zap.NewNop()
	log, err := tel.Logger(config.Default(), base)
	require.NoError(t, err)
	assert.Same(t, base, log)

	assert.NoError(t, tel.Shutdown(context.Background()))
}

func TestNewTelemetry_LogExportTeesIntoLogger(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Output = "stderr"
	cfg.Telemetry.Enabled = true
	cfg.Telemetry.Insecure = true
	// exporters connect lazily, so no collector is needed here
	cfg.Telemetry.CollectorEndpoint = "localhost:19999"

	tel, err := NewTelemetry(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	require.True(t, tel.Logs.IsEnabled())

	base := zap.NewNop()
	log, err := tel.Logger(cfg, base)
	require.NoError(t, err)
	assert.NotSame(t, base, log)
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
}
