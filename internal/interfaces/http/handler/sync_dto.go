package handler

import (
	"github.com/shopspring/decimal"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
)

// SyncJiraToPipedriveRequest is the optional body of POST /api/sync/jira-to-pipedrive
type SyncJiraToPipedriveRequest struct {
	JQL          string           `json:"jql"`
	DefaultValue *decimal.Decimal `json:"default_value"`
	Currency     string           `json:"currency" binding:"omitempty,len=3"`
	DryRun       bool             `json:"dry_run"`
}

// Validate rejects a negative default value
func (r *SyncJiraToPipedriveRequest) Validate() error {
	if r.DefaultValue != nil && r.DefaultValue.IsNegative() {
		return shared.NewValidationError("default_value", "default_value cannot be negative")
	}
	return nil
}

// ToServiceRequest converts the body to the sync service request
func (r *SyncJiraToPipedriveRequest) ToServiceRequest() app.IssueToDealRequest {
	return app.IssueToDealRequest{
		JQL:          r.JQL,
		DefaultValue: r.DefaultValue,
		Currency:     r.Currency,
		DryRun:       r.DryRun,
	}
}

// SyncPipedriveToJiraRequest is the optional body of POST /api/sync/pipedrive-to-jira
type SyncPipedriveToJiraRequest struct {
	ProjectKey string `json:"project_key"`
	IssueType  string `json:"issue_type"`
	Priority   string `json:"priority"`
	DryRun     bool   `json:"dry_run"`
}

// ToServiceRequest converts the body to the sync service request
func (r *SyncPipedriveToJiraRequest) ToServiceRequest() app.DealToIssueRequest {
	return app.DealToIssueRequest{
		ProjectKey: r.ProjectKey,
		IssueType:  r.IssueType,
		Priority:   r.Priority,
		DryRun:     r.DryRun,
	}
}
