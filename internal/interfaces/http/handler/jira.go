package handler

import (
	"github.com/gin-gonic/gin"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/domain/integration"
)

// DefaultIssueListSize is used when max_results is omitted
const DefaultIssueListSize = 50

// JiraHandler exposes the issue tracker port over HTTP
type JiraHandler struct {
	BaseHandler
	tracker        integration.IssueTracker
	defaultProject string
}

// NewJiraHandler creates a new JiraHandler. Listing without jql scopes to defaultProject.
func NewJiraHandler(tracker integration.IssueTracker, defaultProject string) *JiraHandler {
	return &JiraHandler{
		tracker:        tracker,
		defaultProject: defaultProject,
	}
}

// RegisterRoutes mounts the tracker routes under rg
func (h *JiraHandler) RegisterRoutes(rg *gin.RouterGroup) {
	issues := rg.Group("/jira/issues")
	issues.GET("", h.ListIssues)
	issues.GET("/:key", h.GetIssue)
	issues.POST("", h.CreateIssue)
	issues.PUT("/:key", h.UpdateIssue)
}

// ListIssues handles GET /api/jira/issues?jql=&max_results=
func (h *JiraHandler) ListIssues(c *gin.Context) {
	var query ListIssuesQuery
	if !h.BindQuery(c, &query) {
		return
	}
	jql := query.JQL
	if jql == "" {
		jql = app.ProjectJQL(h.defaultProject)
	}
	limit := query.MaxResults
	if limit == 0 {
		limit = DefaultIssueListSize
	}

	issues, err := h.tracker.ListIssues(c.Request.Context(), jql, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, issues)
}

// GetIssue handles GET /api/jira/issues/:key
func (h *JiraHandler) GetIssue(c *gin.Context) {
	issue, err := h.tracker.GetIssue(c.Request.Context(), c.Param("key"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, issue)
}

// CreateIssue handles POST /api/jira/issues
func (h *JiraHandler) CreateIssue(c *gin.Context) {
	var req CreateIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	issue, err := h.tracker.CreateIssue(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, issue)
}

// IssueUpdateResult is the data returned by a successful issue update
type IssueUpdateResult struct {
	Key     string `json:"key"`
	Updated bool   `json:"updated"`
}

// UpdateIssue handles PUT /api/jira/issues/:key
func (h *JiraHandler) UpdateIssue(c *gin.Context) {
	key := c.Param("key")
	var req UpdateIssueRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.tracker.UpdateIssue(c.Request.Context(), key, req.ToPatch()); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, IssueUpdateResult{Key: key, Updated: true})
}
