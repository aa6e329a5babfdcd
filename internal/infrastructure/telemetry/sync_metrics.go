package telemetry

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
var (
	AttrDirection = attribute.Key("direction")
	AttrSource    = attribute.Key("source")
	AttrOutcome   = attribute.Key("outcome")
)

// ErrMeterNil is returned when a metrics constructor receives a nil meter.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// SyncMetrics counts reconciliation and webhook outcomes.
type SyncMetrics struct {
	createdTotal *Counter
	skippedTotal *Counter
	failedTotal  *Counter
	webhookTotal *Counter
	passDuration *Histogram
}

// NewSyncMetrics creates the sync instruments on the given meter.
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}

	sm := &SyncMetrics{}
	var err error

	if sm.createdTotal, err = NewCounter(meter,
		"gateway_sync_created_total",
		"Records created at the destination by reconciliation passes",
		"{records}",
	); err != nil {
		return nil, err
	}
	if sm.skippedTotal, err = NewCounter(meter,
		"gateway_sync_skipped_total",
		"Source records skipped because a counterpart already exists",
		"{records}",
	); err != nil {
		return nil, err
	}
	if sm.failedTotal, err = NewCounter(meter,
		"gateway_sync_failed_total",
		"Destination creations that failed",
		"{records}",
	); err != nil {
		return nil, err
	}
	if sm.webhookTotal, err = NewCounter(meter,
		"gateway_webhook_events_total",
		"Webhook deliveries by source and outcome",
		"{events}",
	); err != nil {
		return nil, err
	}
	if sm.passDuration, err = NewHistogram(meter,
		"gateway_sync_pass_duration_seconds",
		"Reconciliation pass duration",
		"s",
		SyncDurationBuckets,
	); err != nil {
		return nil, err
	}

	return sm, nil
}

// RecordPass records the counts and duration of one reconciliation pass.
// A nil receiver is a no-op so callers need not guard.
func (sm *SyncMetrics) RecordPass(ctx context.Context, direction string, created, skipped, failed int, d time.Duration) {
	if sm == nil {
		return
	}
	attr := AttrDirection.String(direction)
	sm.createdTotal.Add(ctx, int64(created), attr)
	sm.skippedTotal.Add(ctx, int64(skipped), attr)
	sm.failedTotal.Add(ctx, int64(failed), attr)
	sm.passDuration.RecordDuration(ctx, d, attr)
}

// RecordWebhook records one webhook delivery.
func (sm *SyncMetrics) RecordWebhook(ctx context.Context, source, outcome string) {
	if sm == nil {
		return
	}
	sm.webhookTotal.Inc(ctx, AttrSource.String(source), AttrOutcome.String(outcome))
}
