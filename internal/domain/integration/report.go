package integration

import (
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// SyncDirection and SyncStatus
// ---------------------------------------------------------------------------

// SyncDirection identifies which way a reconciliation pass mirrors records
type SyncDirection string

const (
	// SyncDirectionIssueToDeal mirrors tracker issues into CRM deals
	SyncDirectionIssueToDeal SyncDirection = "jira_to_pipedrive"
	// SyncDirectionDealToIssue mirrors CRM deals into tracker issues
	SyncDirectionDealToIssue SyncDirection = "pipedrive_to_jira"
)

// IsValid returns true if the direction is valid
func (d SyncDirection) IsValid() bool {
	return d == SyncDirectionIssueToDeal || d == SyncDirectionDealToIssue
}

// String returns the string representation of SyncDirection
func (d SyncDirection) String() string {
	return string(d)
}

// SyncStatus represents the outcome of a reconciliation pass
type SyncStatus string

const (
	// SyncStatusSuccess indicates every planned creation succeeded (or nothing was needed)
	SyncStatusSuccess SyncStatus = "SUCCESS"
	// SyncStatusPartial indicates some creations succeeded and some failed
	SyncStatusPartial SyncStatus = "PARTIAL"
	// SyncStatusFailed indicates every planned creation failed
	SyncStatusFailed SyncStatus = "FAILED"
)

// String returns the string representation of SyncStatus
func (s SyncStatus) String() string {
	return string(s)
}

// ---------------------------------------------------------------------------
// Reports
// ---------------------------------------------------------------------------

// SyncFailure represents a planned creation that the destination refused or never received
type SyncFailure struct {
	// SourceRef is the issue key or deal id that was being mirrored
	SourceRef string `json:"source"`
	// DedupKey is the title or summary that was being created
	DedupKey string `json:"dedup_key"`
	// Error is the upstream error message
	Error string `json:"error"`
	// Retryable is true when the destination was unreachable rather than refusing
	Retryable bool `json:"retryable"`
}

// SyncSummary holds the bookkeeping shared by both pass directions
type SyncSummary struct {
	RunID     uuid.UUID     `json:"run_id"`
	Direction SyncDirection `json:"direction"`
	DryRun    bool          `json:"dry_run,omitempty"`
	// Skipped lists the dedup keys already present at the destination
	Skipped    []string      `json:"skipped"`
	Failed     []SyncFailure `json:"failed"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

func newSyncSummary(direction SyncDirection, dryRun bool) SyncSummary {
	return SyncSummary{
		RunID:     uuid.New(),
		Direction: direction,
		DryRun:    dryRun,
		Skipped:   []string{},
		Failed:    []SyncFailure{},
		StartedAt: time.Now(),
	}
}

// RecordSkip notes a source record that already has a destination counterpart
func (s *SyncSummary) RecordSkip(dedupKey string) {
	s.Skipped = append(s.Skipped, dedupKey)
}

// RecordFailure notes a failed creation
func (s *SyncSummary) RecordFailure(sourceRef, dedupKey string, err error) {
	s.Failed = append(s.Failed, SyncFailure{
		SourceRef: sourceRef,
		DedupKey:  dedupKey,
		Error:     err.Error(),
		Retryable: IsRetryable(err),
	})
}

// Finish stamps the completion time
func (s *SyncSummary) Finish() {
	s.FinishedAt = time.Now()
}

// Duration returns how long the pass took
func (s *SyncSummary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return time.Since(s.StartedAt)
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *SyncSummary) status(synced int) SyncStatus {
	switch {
	case len(s.Failed) == 0:
		return SyncStatusSuccess
	case synced > 0:
		return SyncStatusPartial
	default:
		return SyncStatusFailed
	}
}

// IssueToDealReport is the outcome of one issue->deal pass
type IssueToDealReport struct {
	SyncSummary
	// SyncedDeals holds the deals created successfully, in source order
	SyncedDeals []Deal `json:"synced_deals"`
	// Planned holds the intents of a dry run
	Planned []DealIntent `json:"planned,omitempty"`
}

// NewIssueToDealReport starts a report for an issue->deal pass
func NewIssueToDealReport(dryRun bool) *IssueToDealReport {
	return &IssueToDealReport{
		SyncSummary: newSyncSummary(SyncDirectionIssueToDeal, dryRun),
		SyncedDeals: []Deal{},
	}
}

// SyncedCount is the number of deals created
func (r *IssueToDealReport) SyncedCount() int {
	return len(r.SyncedDeals)
}

// Status returns the overall outcome of the pass
func (r *IssueToDealReport) Status() SyncStatus {
	return r.status(r.SyncedCount())
}

// DealToIssueReport is the outcome of one deal->issue pass
type DealToIssueReport struct {
	SyncSummary
	// SyncedIssues holds the issues created successfully, in source order
	SyncedIssues []Issue `json:"synced_issues"`
	// Planned holds the intents of a dry run
	Planned []IssueIntent `json:"planned,omitempty"`
}

// NewDealToIssueReport starts a report for a deal->issue pass
func NewDealToIssueReport(dryRun bool) *DealToIssueReport {
	return &DealToIssueReport{
		SyncSummary:  newSyncSummary(SyncDirectionDealToIssue, dryRun),
		SyncedIssues: []Issue{},
	}
}

// SyncedCount is the number of issues created
func (r *DealToIssueReport) SyncedCount() int {
	return len(r.SyncedIssues)
}

// Status returns the overall outcome of the pass
func (r *DealToIssueReport) Status() SyncStatus {
	return r.status(r.SyncedCount())
}
