// Package jira implements the IssueTracker port against the Jira Cloud REST API v3.
package jira

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// defaultMaxResults is used when a listing asks for a non-positive page size
	defaultMaxResults = 50
)

// Adapter implements integration.IssueTracker for Jira Cloud.
// It is immutable after construction and safe for concurrent use.
type Adapter struct {
	config     *Config
	authHeader string
	httpClient *http.Client
}

// NewAdapter creates a new Jira adapter with the given configuration
func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	creds := base64.StdEncoding.EncodeToString([]byte(config.Email + ":" + config.APIToken))
	return &Adapter{
		config:     config,
		authHeader: "Basic " + creds,
		httpClient: &http.Client{
			Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// ---------------------------------------------------------------------------
// IssueTracker
// ---------------------------------------------------------------------------

// ListIssues runs a JQL search and returns the first page. The query is forwarded verbatim.
func (a *Adapter) ListIssues(ctx context.Context, jql string, maxResults int) ([]integration.Issue, error) {
	page, err := a.search(ctx, "list issues", jql, maxResults, "")
	if err != nil {
		return nil, err
	}
	return appendIssues(make([]integration.Issue, 0, len(page.Issues)), page.Issues), nil
}

// ListAllIssues runs a JQL search and follows nextPageToken until Jira reports the last page
func (a *Adapter) ListAllIssues(ctx context.Context, jql string, pageSize int) ([]integration.Issue, error) {
	var (
		issues []integration.Issue
		token  string
	)
	for {
		page, err := a.search(ctx, "list all issues", jql, pageSize, token)
		if err != nil {
			return nil, err
		}
		issues = appendIssues(issues, page.Issues)
		if page.IsLast || page.NextPageToken == "" {
			return issues, nil
		}
		if page.NextPageToken == token {
			return nil, integration.NewInvalidResponseError(integration.SystemJira, "list all issues",
				fmt.Errorf("page token %q repeated", token))
		}
		token = page.NextPageToken
	}
}

func (a *Adapter) search(ctx context.Context, op, jql string, maxResults int, pageToken string) (*searchResponse, error) {
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	query := url.Values{}
	query.Set("jql", jql)
	query.Set("maxResults", strconv.Itoa(maxResults))
	query.Set("fields", searchFields)
	if pageToken != "" {
		query.Set("nextPageToken", pageToken)
	}

	var resp searchResponse
	if err := a.do(ctx, op, http.MethodGet, "/rest/api/3/search/jql", query, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetIssue fetches a single issue by key
func (a *Adapter) GetIssue(ctx context.Context, key string) (*integration.Issue, error) {
	if key == "" {
		return nil, shared.NewRequiredFieldError("key")
	}
	query := url.Values{}
	query.Set("fields", searchFields)

	var ji jiraIssue
	if err := a.do(ctx, "get issue", http.MethodGet, "/rest/api/3/issue/"+url.PathEscape(key), query, nil, &ji); err != nil {
		return nil, err
	}
	issue := toIssue(&ji)
	return &issue, nil
}

// CreateIssue creates an issue. Project, issue type and priority fall back to the
// configured defaults; the description becomes a single-paragraph ADF document.
func (a *Adapter) CreateIssue(ctx context.Context, input integration.IssueInput) (*integration.Issue, error) {
	if input.Summary == "" {
		return nil, shared.NewRequiredFieldError("summary")
	}
	projectKey := firstNonEmpty(input.ProjectKey, a.config.DefaultProjectKey)
	if projectKey == "" {
		return nil, shared.NewRequiredFieldError("project_key")
	}
	issueType := firstNonEmpty(input.IssueType, a.config.DefaultIssueType)
	priority := firstNonEmpty(input.Priority, a.config.DefaultPriority)

	fields := map[string]any{
		"project":   map[string]string{"key": projectKey},
		"summary":   input.Summary,
		"issuetype": map[string]string{"name": issueType},
		"priority":  map[string]string{"name": priority},
	}
	if doc := PlainTextDocument(input.Description); doc != nil {
		fields["description"] = doc
	}
	if input.Assignee != "" {
		fields["assignee"] = map[string]string{"accountId": input.Assignee}
	}

	var resp createResponse
	if err := a.do(ctx, "create issue", http.MethodPost, "/rest/api/3/issue", nil, issueRequest{Fields: fields}, &resp); err != nil {
		return nil, err
	}
	if resp.Key == "" {
		return nil, integration.NewInvalidResponseError(integration.SystemJira, "create issue", fmt.Errorf("missing issue key"))
	}

	return &integration.Issue{
		Key:         resp.Key,
		Summary:     input.Summary,
		Priority:    priority,
		Assignee:    input.Assignee,
		Description: input.Description,
		ProjectKey:  projectKey,
		IssueType:   issueType,
	}, nil
}

// UpdateIssue sends only the fields present in the patch. An empty patch is a no-op.
func (a *Adapter) UpdateIssue(ctx context.Context, key string, patch integration.IssuePatch) error {
	if key == "" {
		return shared.NewRequiredFieldError("key")
	}
	if patch.IsEmpty() {
		return nil
	}

	fields := make(map[string]any, 4)
	if patch.Summary != nil {
		if *patch.Summary == "" {
			return shared.NewValidationError("summary", "summary cannot be empty")
		}
		fields["summary"] = *patch.Summary
	}
	if patch.Description != nil {
		// nil clears the description
		fields["description"] = PlainTextDocument(*patch.Description)
	}
	if patch.Priority != nil {
		fields["priority"] = map[string]string{"name": *patch.Priority}
	}
	if patch.Assignee != nil {
		if *patch.Assignee == "" {
			fields["assignee"] = nil
		} else {
			fields["assignee"] = map[string]string{"accountId": *patch.Assignee}
		}
	}

	return a.do(ctx, "update issue", http.MethodPut, "/rest/api/3/issue/"+url.PathEscape(key), nil, issueRequest{Fields: fields}, nil)
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// do performs an HTTP request to the Jira API and decodes a JSON response into out
func (a *Adapter) do(ctx context.Context, op, method, path string, query url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("jira: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	endpoint := a.config.BaseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("jira: failed to create request: %w", err)
	}
	a.setHeaders(req)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return integration.NewUnavailableError(integration.SystemJira, op, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return integration.NewUnavailableError(integration.SystemJira, op, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return integration.NewRejectedError(integration.SystemJira, op, resp.StatusCode, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return integration.NewInvalidResponseError(integration.SystemJira, op, err)
	}
	return nil
}

func (a *Adapter) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", a.authHeader)
	req.Header.Set("Accept", "application/json")
	if req.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
}

func appendIssues(dst []integration.Issue, page []*jiraIssue) []integration.Issue {
	for _, ji := range page {
		if ji == nil {
			continue
		}
		dst = append(dst, toIssue(ji))
	}
	return dst
}

// toIssue converts a Jira issue to the normalized Issue
func toIssue(ji *jiraIssue) integration.Issue {
	issue := integration.Issue{
		Key:         ji.Key,
		Summary:     ji.Fields.Summary,
		Description: PlainText(ji.Fields.Description),
		Created:     ji.Fields.Created.Time,
		Updated:     ji.Fields.Updated.Time,
	}
	if ji.Fields.Status != nil {
		issue.Status = ji.Fields.Status.Name
	}
	if ji.Fields.Priority != nil {
		issue.Priority = ji.Fields.Priority.Name
	}
	if ji.Fields.IssueType != nil {
		issue.IssueType = ji.Fields.IssueType.Name
	}
	if ji.Fields.Project != nil {
		issue.ProjectKey = ji.Fields.Project.Key
	}
	if ji.Fields.Assignee != nil {
		issue.Assignee = ji.Fields.Assignee.AccountID
	}
	return issue
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Ensure Adapter implements IssueTracker interface
var _ integration.IssueTracker = (*Adapter)(nil)
