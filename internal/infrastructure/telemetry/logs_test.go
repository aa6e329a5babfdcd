package telemetry

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type exportedRecord struct {
	body     string
	severity otellog.Severity
	attrs    map[string]string
}

// recordingExporter keeps exported log records in memory.
type recordingExporter struct {
	mu      sync.Mutex
	records []exportedRecord
}

func (e *recordingExporter) Export(_ context.Context, records []sdklog.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range records {
		rec := exportedRecord{
			body:     r.Body().AsString(),
			severity: r.Severity(),
			attrs:    map[string]string{},
		}
		r.WalkAttributes(func(kv otellog.KeyValue) bool {
			rec.attrs[kv.Key] = kv.Value.String()
			return true
		})
		e.records = append(e.records, rec)
	}
	return nil
}

func (e *recordingExporter) Shutdown(context.Context) error   { return nil }
func (e *recordingExporter) ForceFlush(context.Context) error { return nil }

func (e *recordingExporter) all() []exportedRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]exportedRecord(nil), e.records...)
}

func newRecordingLoggerProvider(t *testing.T) (*LoggerProvider, *recordingExporter) {
	t.Helper()
	exp := &recordingExporter{}
	lp := &LoggerProvider{
		provider: sdklog.NewLoggerProvider(sdklog.WithProcessor(sdklog.NewSimpleProcessor(exp))),
		logger:   zap.NewNop(),
		config:   LogsConfig{Enabled: true, ServiceName: "dealbridge-gateway"},
	}
	t.Cleanup(func() { _ = lp.Shutdown(context.Background()) })
	return lp, exp
}

func TestNewLoggerProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	provider, err := NewLoggerProvider(ctx, LogsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "dealbridge-gateway",
		Insecure:          true,
	}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, provider.IsEnabled())
	assert.NoError(t, provider.ForceFlush(ctx))

	// repeated shutdowns are harmless
	assert.NoError(t, provider.Shutdown(ctx))
	assert.NoError(t, provider.Shutdown(ctx))
}

func TestLoggerProvider_CoreWhenDisabled(t *testing.T) {
	provider, err := NewLoggerProvider(context.Background(), LogsConfig{}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, provider.Core(zapcore.DebugLevel).Enabled(zapcore.ErrorLevel))

	var nilProvider *LoggerProvider
	assert.False(t, nilProvider.Core(zapcore.InfoLevel).Enabled(zapcore.ErrorLevel))
}

func TestLoggerProvider_CoreExportsEntries(t *testing.T) {
	lp, exp := newRecordingLoggerProvider(t)
	stdout, stdoutLogs := observer.New(zapcore.DebugLevel)

	log := zap.New(zapcore.NewTee(stdout, lp.Core(zapcore.InfoLevel)))
	log.Debug("snapshot page fetched")
	log.Info("Mirrored resolved issue into a deal", zap.String("issue_key", "OPS-1"))
	log.Warn("Failed to create deal for issue")
	require.NoError(t, lp.ForceFlush(context.Background()))

	// the local output keeps every level
	assert.Equal(t, 3, stdoutLogs.Len())

	records := exp.all()
	require.Len(t, records, 2)
	assert.Equal(t, "Mirrored resolved issue into a deal", records[0].body)
	assert.Equal(t, otellog.SeverityInfo, records[0].severity)
	assert.Equal(t, "OPS-1", records[0].attrs["issue_key"])
	assert.Equal(t, otellog.SeverityWarn, records[1].severity)
}

func TestLevelFilterCore(t *testing.T) {
	observed, logs := observer.New(zapcore.DebugLevel)
	filtered := &levelFilterCore{Core: observed, minLevel: zapcore.WarnLevel}

	assert.False(t, filtered.Enabled(zapcore.InfoLevel))
	assert.True(t, filtered.Enabled(zapcore.WarnLevel))

	child := filtered.With([]zapcore.Field{zap.String("run_id", "r-1")})
	lf, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, lf.minLevel)

	log := zap.New(child)
	log.Info("dropped")
	log.Error("kept")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0].Message)
	assert.Equal(t, "r-1", entries[0].ContextMap()["run_id"])
}
