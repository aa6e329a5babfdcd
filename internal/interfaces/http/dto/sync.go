package dto

import (
	"github.com/dealbridge/gateway/internal/domain/integration"
)

// IssueToDealSyncResponse is the body returned by POST /api/sync/jira-to-pipedrive.
// The report fields (synced_deals, skipped, failed, run_id...) are inlined.
type IssueToDealSyncResponse struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"synced_count"`
	Status      string `json:"status"`
	DurationMS  int64  `json:"duration_ms"`
	*integration.IssueToDealReport
}

// NewIssueToDealSyncResponse wraps a finished issue->deal report
func NewIssueToDealSyncResponse(report *integration.IssueToDealReport) IssueToDealSyncResponse {
	return IssueToDealSyncResponse{
		Success:           true,
		SyncedCount:       report.SyncedCount(),
		Status:            report.Status().String(),
		DurationMS:        report.Duration().Milliseconds(),
		IssueToDealReport: report,
	}
}

// DealToIssueSyncResponse is the body returned by POST /api/sync/pipedrive-to-jira
type DealToIssueSyncResponse struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"synced_count"`
	Status      string `json:"status"`
	DurationMS  int64  `json:"duration_ms"`
	*integration.DealToIssueReport
}

// NewDealToIssueSyncResponse wraps a finished deal->issue report
func NewDealToIssueSyncResponse(report *integration.DealToIssueReport) DealToIssueSyncResponse {
	return DealToIssueSyncResponse{
		Success:           true,
		SyncedCount:       report.SyncedCount(),
		Status:            report.Status().String(),
		DurationMS:        report.Duration().Milliseconds(),
		DealToIssueReport: report,
	}
}
