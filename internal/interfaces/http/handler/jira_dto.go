package handler

import (
	"strings"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
)

// ListIssuesQuery holds the query parameters of GET /api/jira/issues
type ListIssuesQuery struct {
	// JQL is passed to the tracker verbatim; empty selects the configured project
	JQL        string `form:"jql"`
	MaxResults int    `form:"max_results" binding:"omitempty,min=1,max=100"`
}

// CreateIssueRequest is the body of POST /api/jira/issues
type CreateIssueRequest struct {
	Summary     string `json:"summary" binding:"required,max=255"`
	Description string `json:"description"`
	ProjectKey  string `json:"project_key"`
	IssueType   string `json:"issue_type"`
	Priority    string `json:"priority"`
	Assignee    string `json:"assignee"`
}

// Validate rejects a summary made only of whitespace, which binding lets through
func (r *CreateIssueRequest) Validate() error {
	if strings.TrimSpace(r.Summary) == "" {
		return shared.NewRequiredFieldError("summary")
	}
	return nil
}

// ToInput converts the request to the tracker port input
func (r *CreateIssueRequest) ToInput() integration.IssueInput {
	return integration.IssueInput{
		Summary:     r.Summary,
		Description: r.Description,
		ProjectKey:  r.ProjectKey,
		IssueType:   r.IssueType,
		Priority:    r.Priority,
		Assignee:    r.Assignee,
	}
}

// UpdateIssueRequest is the body of PUT /api/jira/issues/:key. Absent fields are untouched.
type UpdateIssueRequest struct {
	Summary     *string `json:"summary" binding:"omitempty,max=255"`
	Description *string `json:"description"`
	Priority    *string `json:"priority"`
	Assignee    *string `json:"assignee"`
}

// Validate rejects an empty patch and a blank summary
func (r *UpdateIssueRequest) Validate() error {
	if r.Summary != nil && strings.TrimSpace(*r.Summary) == "" {
		return shared.NewValidationError("summary", "summary cannot be blank")
	}
	if r.ToPatch().IsEmpty() {
		return shared.NewValidationError("", "at least one field must be provided")
	}
	return nil
}

// ToPatch converts the request to the tracker port patch
func (r *UpdateIssueRequest) ToPatch() integration.IssuePatch {
	return integration.IssuePatch{
		Summary:     r.Summary,
		Description: r.Description,
		Priority:    r.Priority,
		Assignee:    r.Assignee,
	}
}
