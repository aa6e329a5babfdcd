package integration

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/infrastructure/telemetry"
)

// Webhook event names that trigger a mirror
const (
	JiraEventIssueUpdated     = "jira:issue_updated"
	PipedriveEventDealWon     = "deal.won"
	PipedriveEventDealUpdated = "updated.deal"
)

// WebhookOutcome describes what a reactor did with one delivery
type WebhookOutcome string

const (
	// WebhookOutcomeIgnored means the event does not trigger a mirror
	WebhookOutcomeIgnored WebhookOutcome = "ignored"
	// WebhookOutcomeMirrored means the counterpart record was created
	WebhookOutcomeMirrored WebhookOutcome = "mirrored"
	// WebhookOutcomeMirrorFailed means the create call failed; the failure was logged and dropped
	WebhookOutcomeMirrorFailed WebhookOutcome = "mirror_failed"
	// WebhookOutcomeDuplicate means the idempotency store had already seen the event
	WebhookOutcomeDuplicate WebhookOutcome = "duplicate"
)

// JiraWebhookEvent is the part of a tracker webhook delivery the reactor needs
type JiraWebhookEvent struct {
	Event string
	Issue integration.Issue
}

// PipedriveWebhookEvent is the part of a CRM webhook delivery the reactor needs
type PipedriveWebhookEvent struct {
	Event string
	Deal  integration.Deal
	// PreviousStatus is the deal status before the change, empty when unknown
	PreviousStatus integration.DealStatus
}

// WebhookResult reports the outcome of one delivery
type WebhookResult struct {
	Outcome WebhookOutcome
	// Ref is the issue key or deal id the event was about
	Ref   string
	Deal  *integration.Deal
	Issue *integration.Issue
	Err   error
}

// WebhookOption configures a WebhookService
type WebhookOption func(*WebhookService)

// WithIdempotency suppresses repeated mirrors of the same record while the key is retained.
// Without it every qualifying delivery creates a record.
//
// The key is checked before the create and marked only after it succeeds, so a failed
// create can be retried by a redelivery. Two deliveries of the same event handled
// concurrently can both pass the check and both create; suppression covers sequential
// redeliveries only.
func WithIdempotency(store shared.IdempotencyStore, cfg shared.IdempotencyConfig) WebhookOption {
	return func(s *WebhookService) {
		s.store = store
		s.dedup = cfg
	}
}

// WebhookService reacts to single-record webhook events by mirroring the record into the
// other system. Downstream failures never propagate to the caller.
type WebhookService struct {
	tracker  integration.IssueTracker
	crm      integration.CRM
	defaults SyncDefaults
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger

	store shared.IdempotencyStore
	dedup shared.IdempotencyConfig
}

// NewWebhookService creates a new WebhookService. metrics may be nil.
func NewWebhookService(
	tracker integration.IssueTracker,
	crm integration.CRM,
	defaults SyncDefaults,
	metrics *telemetry.SyncMetrics,
	log *zap.Logger,
	opts ...WebhookOption,
) *WebhookService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &WebhookService{
		tracker:  tracker,
		crm:      crm,
		defaults: defaults,
		metrics:  metrics,
		logger:   log.Named("webhook"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// HandleJiraEvent creates a deal for an issue that was updated into the Done status.
// The deal is built from the embedded issue, without re-fetching it or checking for an
// existing deal.
func (s *WebhookService) HandleJiraEvent(ctx context.Context, event JiraWebhookEvent) WebhookResult {
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook", "jira")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWebhookSource, integration.SystemJira.String(),
		telemetry.SpanAttrWebhookEvent, event.Event,
		telemetry.SpanAttrRecordRef, event.Issue.Key,
	)
	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("event", event.Event),
		zap.String("issue_key", event.Issue.Key),
	)

	result := WebhookResult{Outcome: WebhookOutcomeIgnored, Ref: event.Issue.Key}
	if event.Event != JiraEventIssueUpdated || event.Issue.Status != integration.IssueStatusDone || event.Issue.Key == "" {
		log.Debug("Ignoring tracker event", zap.String("status", event.Issue.Status))
		return s.finish(ctx, integration.SystemJira, result)
	}

	dedupKey := "jira:done:" + event.Issue.Key
	if s.seen(ctx, log, dedupKey) {
		result.Outcome = WebhookOutcomeDuplicate
		return s.finish(ctx, integration.SystemJira, result)
	}

	intent := integration.NewDealIntent(event.Issue, s.defaults.DefaultValue, s.defaults.Currency)
	deal, err := s.crm.CreateDeal(ctx, intent.Input)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to mirror resolved issue into a deal", zap.String("title", intent.DedupKey), zap.Error(err))
		result.Outcome = WebhookOutcomeMirrorFailed
		result.Err = err
		return s.finish(ctx, integration.SystemJira, result)
	}

	s.remember(ctx, log, dedupKey)
	log.Info("Mirrored resolved issue into a deal", zap.Int64("deal_id", deal.ID))
	result.Outcome = WebhookOutcomeMirrored
	result.Deal = deal
	return s.finish(ctx, integration.SystemJira, result)
}

// HandlePipedriveEvent creates a High priority issue for a deal that was won.
// Both the "deal.won" event and an "updated.deal" event moving a deal into the won
// status qualify.
func (s *WebhookService) HandlePipedriveEvent(ctx context.Context, event PipedriveWebhookEvent) WebhookResult {
	ref := strconv.FormatInt(event.Deal.ID, 10)
	ctx, span := telemetry.StartServiceSpan(ctx, "webhook", "pipedrive")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrWebhookSource, integration.SystemPipedrive.String(),
		telemetry.SpanAttrWebhookEvent, event.Event,
		telemetry.SpanAttrRecordRef, ref,
	)
	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("event", event.Event),
		zap.Int64("deal_id", event.Deal.ID),
	)

	result := WebhookResult{Outcome: WebhookOutcomeIgnored, Ref: ref}
	if !isDealWon(event) {
		log.Debug("Ignoring CRM event", zap.String("status", event.Deal.Status.String()))
		return s.finish(ctx, integration.SystemPipedrive, result)
	}

	dedupKey := "pipedrive:won:" + ref
	if s.seen(ctx, log, dedupKey) {
		result.Outcome = WebhookOutcomeDuplicate
		return s.finish(ctx, integration.SystemPipedrive, result)
	}

	intent := integration.NewIssueIntent(event.Deal, integration.IssueTemplate{
		ProjectKey: s.defaults.ProjectKey,
		IssueType:  s.defaults.IssueType,
		Priority:   s.defaults.WonIssuePriority,
	})
	issue, err := s.tracker.CreateIssue(ctx, intent.Input)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to mirror won deal into an issue", zap.String("summary", intent.DedupKey), zap.Error(err))
		result.Outcome = WebhookOutcomeMirrorFailed
		result.Err = err
		return s.finish(ctx, integration.SystemPipedrive, result)
	}

	s.remember(ctx, log, dedupKey)
	log.Info("Mirrored won deal into an issue", zap.String("issue_key", issue.Key))
	result.Outcome = WebhookOutcomeMirrored
	result.Issue = issue
	return s.finish(ctx, integration.SystemPipedrive, result)
}

func isDealWon(event PipedriveWebhookEvent) bool {
	switch event.Event {
	case PipedriveEventDealWon:
		return true
	case PipedriveEventDealUpdated:
		return event.Deal.Status == integration.DealStatusWon &&
			event.PreviousStatus != "" && event.PreviousStatus != integration.DealStatusWon
	default:
		return false
	}
}

// seen reports whether the idempotency store already holds key. Store errors are logged
// and treated as unseen so a broken store never blocks mirroring.
func (s *WebhookService) seen(ctx context.Context, log *logger.ContextLogger, key string) bool {
	if s.store == nil || !s.dedup.Enabled {
		return false
	}
	processed, err := s.store.IsProcessed(ctx, key)
	if err != nil {
		log.Warn("Idempotency lookup failed, processing event", zap.String("key", key), zap.Error(err))
		return false
	}
	if processed {
		log.Info("Suppressing repeated webhook delivery", zap.String("key", key))
	}
	return processed
}

func (s *WebhookService) remember(ctx context.Context, log *logger.ContextLogger, key string) {
	if s.store == nil || !s.dedup.Enabled {
		return
	}
	if _, err := s.store.MarkProcessed(ctx, key, s.dedup.TTL); err != nil {
		log.Warn("Failed to record processed webhook", zap.String("key", key), zap.Error(err))
	}
}

func (s *WebhookService) finish(ctx context.Context, source integration.System, result WebhookResult) WebhookResult {
	s.metrics.RecordWebhook(context.WithoutCancel(ctx), source.String(), string(result.Outcome))
	return result
}
