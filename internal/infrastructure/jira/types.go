package jira

import (
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Jira REST v3 wire types
// ---------------------------------------------------------------------------

// searchResponse is the response of GET /rest/api/3/search/jql
type searchResponse struct {
	Issues        []*jiraIssue `json:"issues"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
	IsLast        bool         `json:"isLast"`
}

// jiraIssue is an issue as returned by the issue and search endpoints
type jiraIssue struct {
	ID     string     `json:"id"`
	Key    string     `json:"key"`
	Fields jiraFields `json:"fields"`
}

type jiraFields struct {
	Summary     string   `json:"summary"`
	Status      *named   `json:"status,omitempty"`
	Priority    *named   `json:"priority,omitempty"`
	IssueType   *named   `json:"issuetype,omitempty"`
	Project     *project `json:"project,omitempty"`
	Assignee    *user    `json:"assignee,omitempty"`
	Description *ADFNode `json:"description,omitempty"`
	Created     jiraTime `json:"created"`
	Updated     jiraTime `json:"updated"`
}

type named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

type project struct {
	ID  string `json:"id,omitempty"`
	Key string `json:"key"`
}

type user struct {
	AccountID   string `json:"accountId"`
	DisplayName string `json:"displayName,omitempty"`
}

// createResponse is the response of POST /rest/api/3/issue
type createResponse struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// issueRequest is the body of create and edit calls. Only non-nil fields are sent.
type issueRequest struct {
	Fields map[string]any `json:"fields"`
}

// searchFields is the field list requested from the search endpoint
var searchFields = strings.Join([]string{
	"summary", "status", "priority", "issuetype", "project",
	"assignee", "description", "created", "updated",
}, ",")

// jiraTimeLayout is the timestamp layout used by Jira ("2024-01-15T10:30:00.000+0000")
const jiraTimeLayout = "2006-01-02T15:04:05.000-0700"

// jiraTime decodes Jira timestamps, which carry no colon in the zone offset
type jiraTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *jiraTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.Parse(jiraTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}
