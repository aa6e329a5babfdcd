package integration

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/infrastructure/telemetry"
)

// SyncDefaults holds the values used when a sync request leaves a field unset
type SyncDefaults struct {
	// JQL selects the issues mirrored into deals
	JQL string
	// DefaultValue is the value given to deals created from issues
	DefaultValue decimal.Decimal
	// Currency is the currency of deals created from issues
	Currency string
	// ProjectKey, IssueType and Priority describe issues created from deals
	ProjectKey string
	IssueType  string
	Priority   string
	// WonIssuePriority is the priority of issues created by the deal-won reactor
	WonIssuePriority string
	// IssuePageSize is the page size used while reading an issue snapshot
	IssuePageSize int
	// DealPageSize is the page size used while reading a deal snapshot
	DealPageSize int
}

// DefaultSyncDefaults returns the defaults used when configuration is silent
func DefaultSyncDefaults() SyncDefaults {
	return SyncDefaults{
		JQL:              "status = Done",
		DefaultValue:     decimal.Zero,
		Currency:         "USD",
		ProjectKey:       "PROJ",
		IssueType:        "Task",
		Priority:         "Medium",
		WonIssuePriority: "High",
		IssuePageSize:    100,
		DealPageSize:     500,
	}
}

// IssueToDealRequest parameterizes an issue->deal pass. Empty fields use SyncDefaults.
type IssueToDealRequest struct {
	JQL          string
	DefaultValue *decimal.Decimal
	Currency     string
	// DryRun computes the intents without creating anything
	DryRun bool
}

// DealToIssueRequest parameterizes a deal->issue pass. Empty fields use SyncDefaults.
type DealToIssueRequest struct {
	ProjectKey string
	IssueType  string
	Priority   string
	DryRun     bool
}

// SyncService runs reconciliation passes between the issue tracker and the CRM.
// It keeps no state between passes; every pass recomputes the delta from fresh snapshots.
type SyncService struct {
	tracker  integration.IssueTracker
	crm      integration.CRM
	defaults SyncDefaults
	metrics  *telemetry.SyncMetrics
	logger   *zap.Logger
}

// NewSyncService creates a new SyncService. metrics may be nil.
func NewSyncService(
	tracker integration.IssueTracker,
	crm integration.CRM,
	defaults SyncDefaults,
	metrics *telemetry.SyncMetrics,
	log *zap.Logger,
) *SyncService {
	if log == nil {
		log = zap.NewNop()
	}
	return &SyncService{
		tracker:  tracker,
		crm:      crm,
		defaults: defaults,
		metrics:  metrics,
		logger:   log.Named("sync"),
	}
}

// Defaults returns the configured fallback values
func (s *SyncService) Defaults() SyncDefaults {
	return s.defaults
}

// ---------------------------------------------------------------------------
// Issue -> Deal
// ---------------------------------------------------------------------------

// SyncIssuesToDeals mirrors every issue matched by the query that has no deal titled
// "[KEY] summary" yet. Creation failures are recorded in the report and do not stop the
// pass; snapshot failures abort it.
func (s *SyncService) SyncIssuesToDeals(ctx context.Context, req IssueToDealRequest) (*integration.IssueToDealReport, error) {
	jql := firstNonEmpty(req.JQL, s.defaults.JQL)
	currency := firstNonEmpty(req.Currency, s.defaults.Currency)
	value := s.defaults.DefaultValue
	if req.DefaultValue != nil {
		value = *req.DefaultValue
	}

	report := integration.NewIssueToDealReport(req.DryRun)
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", "issues_to_deals")
	defer span.End()
	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("run_id", report.RunID.String()),
		zap.String("direction", report.Direction.String()),
	)

	issues, err := s.tracker.ListAllIssues(ctx, jql, s.defaults.IssuePageSize)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch source issues", zap.String("jql", jql), zap.Error(err))
		return nil, fmt.Errorf("fetch source issues: %w", err)
	}
	deals, err := s.crm.ListAllDeals(ctx, integration.DealStatusAllNotDeleted, s.defaults.DealPageSize)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch existing deals", zap.Error(err))
		return nil, fmt.Errorf("fetch existing deals: %w", err)
	}

	existing := integration.DealTitleSet(deals)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSyncRunID, report.RunID.String(),
		telemetry.SpanAttrSyncDirection, report.Direction.String(),
		telemetry.SpanAttrSourceCount, len(issues),
		telemetry.SpanAttrExistingCount, existing.Len(),
		telemetry.SpanAttrDryRun, req.DryRun,
	)

	for _, issue := range issues {
		if ctx.Err() != nil {
			break
		}
		intent := integration.NewDealIntent(issue, value, currency)
		if existing.Contains(intent.DedupKey) {
			report.RecordSkip(intent.DedupKey)
			continue
		}
		if req.DryRun {
			report.Planned = append(report.Planned, intent)
			existing.Add(intent.DedupKey)
			continue
		}

		deal, err := s.crm.CreateDeal(ctx, intent.Input)
		if err != nil {
			report.RecordFailure(intent.SourceKey, intent.DedupKey, err)
			telemetry.AddEvent(span, "record.failed", telemetry.SpanAttrRecordRef, intent.SourceKey)
			log.Warn("Failed to create deal for issue",
				zap.String("issue_key", intent.SourceKey),
				zap.String("title", intent.DedupKey),
				zap.Bool("retryable", integration.IsRetryable(err)),
				zap.Error(err),
			)
			continue
		}
		report.SyncedDeals = append(report.SyncedDeals, *deal)
		existing.Add(intent.DedupKey)
		log.Debug("Created deal for issue", zap.String("issue_key", intent.SourceKey), zap.Int64("deal_id", deal.ID))
	}

	report.Finish()
	s.finishPass(ctx, span, log, &report.SyncSummary, report.SyncedCount(), len(report.Planned), report.Status())
	return report, ctx.Err()
}

// ---------------------------------------------------------------------------
// Deal -> Issue
// ---------------------------------------------------------------------------

// SyncDealsToIssues mirrors every non-deleted deal that has no issue summarized
// "Deal: title" in the target project yet.
func (s *SyncService) SyncDealsToIssues(ctx context.Context, req DealToIssueRequest) (*integration.DealToIssueReport, error) {
	tmpl := integration.IssueTemplate{
		ProjectKey: firstNonEmpty(req.ProjectKey, s.defaults.ProjectKey),
		IssueType:  firstNonEmpty(req.IssueType, s.defaults.IssueType),
		Priority:   firstNonEmpty(req.Priority, s.defaults.Priority),
	}

	report := integration.NewDealToIssueReport(req.DryRun)
	ctx, span := telemetry.StartServiceSpan(ctx, "sync", "deals_to_issues")
	defer span.End()
	log := logger.WithLogger(ctx, s.logger).With(
		zap.String("run_id", report.RunID.String()),
		zap.String("direction", report.Direction.String()),
	)

	deals, err := s.crm.ListAllDeals(ctx, integration.DealStatusAllNotDeleted, s.defaults.DealPageSize)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch source deals", zap.Error(err))
		return nil, fmt.Errorf("fetch source deals: %w", err)
	}
	jql := ProjectJQL(tmpl.ProjectKey)
	issues, err := s.tracker.ListAllIssues(ctx, jql, s.defaults.IssuePageSize)
	if err != nil {
		telemetry.RecordError(span, err)
		log.Error("Failed to fetch existing issues", zap.String("jql", jql), zap.Error(err))
		return nil, fmt.Errorf("fetch existing issues: %w", err)
	}

	existing := integration.IssueSummarySet(issues)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrSyncRunID, report.RunID.String(),
		telemetry.SpanAttrSyncDirection, report.Direction.String(),
		telemetry.SpanAttrSourceCount, len(deals),
		telemetry.SpanAttrExistingCount, existing.Len(),
		telemetry.SpanAttrDryRun, req.DryRun,
	)

	for _, deal := range deals {
		if ctx.Err() != nil {
			break
		}
		intent := integration.NewIssueIntent(deal, tmpl)
		if existing.Contains(intent.DedupKey) {
			report.RecordSkip(intent.DedupKey)
			continue
		}
		if req.DryRun {
			report.Planned = append(report.Planned, intent)
			existing.Add(intent.DedupKey)
			continue
		}

		issue, err := s.tracker.CreateIssue(ctx, intent.Input)
		if err != nil {
			report.RecordFailure(intent.SourceRef(), intent.DedupKey, err)
			telemetry.AddEvent(span, "record.failed", telemetry.SpanAttrRecordRef, intent.SourceRef())
			log.Warn("Failed to create issue for deal",
				zap.Int64("deal_id", intent.SourceDealID),
				zap.String("summary", intent.DedupKey),
				zap.Bool("retryable", integration.IsRetryable(err)),
				zap.Error(err),
			)
			continue
		}
		report.SyncedIssues = append(report.SyncedIssues, *issue)
		existing.Add(intent.DedupKey)
		log.Debug("Created issue for deal", zap.Int64("deal_id", intent.SourceDealID), zap.String("issue_key", issue.Key))
	}

	report.Finish()
	s.finishPass(ctx, span, log, &report.SyncSummary, report.SyncedCount(), len(report.Planned), report.Status())
	return report, ctx.Err()
}

func (s *SyncService) finishPass(
	ctx context.Context,
	span trace.Span,
	log *logger.ContextLogger,
	summary *integration.SyncSummary,
	created, planned int,
	status integration.SyncStatus,
) {
	telemetry.SetAttributes(span,
		telemetry.SpanAttrCreatedCount, created,
		telemetry.SpanAttrSkippedCount, len(summary.Skipped),
		telemetry.SpanAttrFailedCount, len(summary.Failed),
	)
	if err := ctx.Err(); err != nil {
		telemetry.RecordError(span, err)
	}
	// Detached so a cancelled request still records what it created.
	s.metrics.RecordPass(context.WithoutCancel(ctx), summary.Direction.String(),
		created, len(summary.Skipped), len(summary.Failed), summary.Duration())

	fields := []zap.Field{
		zap.String("status", status.String()),
		zap.Int("created", created),
		zap.Int("skipped", len(summary.Skipped)),
		zap.Int("failed", len(summary.Failed)),
		zap.Duration("duration", summary.Duration()),
	}
	if summary.DryRun {
		fields = append(fields, zap.Bool("dry_run", true), zap.Int("planned", planned))
	}
	if len(summary.Failed) > 0 {
		log.Warn("Reconciliation pass finished with failures", fields...)
		return
	}
	log.Info("Reconciliation pass finished", fields...)
}

// ProjectJQL returns the query selecting every issue of a project
func ProjectJQL(projectKey string) string {
	return fmt.Sprintf("project = %q", projectKey)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
