package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
)

func setupJiraHandler() (*MockIssueTracker, http.Handler) {
	tracker := new(MockIssueTracker)
	return tracker, newTestEngine(NewJiraHandler(tracker, "OPS"))
}

func TestJiraHandler_ListIssues(t *testing.T) {
	t.Run("defaults to the configured project", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		tracker.On("ListIssues", mock.Anything, `project = "OPS"`, DefaultIssueListSize).
			Return([]integration.Issue{{Key: "OPS-1", Summary: "First"}}, nil).Once()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jira/issues", nil))

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool                `json:"success"`
			Data    []integration.Issue `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "OPS-1", resp.Data[0].Key)
		tracker.AssertExpectations(t)
	})

	t.Run("passes jql and max_results through", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		tracker.On("ListIssues", mock.Anything, "status = Done", 10).
			Return([]integration.Issue{}, nil).Once()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jira/issues?jql=status+%3D+Done&max_results=10", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		tracker.AssertExpectations(t)
	})

	t.Run("rejects out of range max_results", func(t *testing.T) {
		tracker, engine := setupJiraHandler()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jira/issues?max_results=1000", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		tracker.AssertNotCalled(t, "ListIssues", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("upstream failure is a 500", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		tracker.On("ListIssues", mock.Anything, mock.Anything, mock.Anything).
			Return(nil, integration.NewUnavailableError(integration.SystemJira, "search issues", errors.New("connection refused")))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jira/issues", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, dto.ErrCodeUpstreamUnavailable, decodeError(t, w).Code)
	})
}

func TestJiraHandler_GetIssue(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		tracker.On("GetIssue", mock.Anything, "OPS-7").
			Return(&integration.Issue{Key: "OPS-7", Summary: "Seven"}, nil)

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jira/issues/OPS-7", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"key":"OPS-7"`)
	})

	t.Run("missing issue is a 404", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		tracker.On("GetIssue", mock.Anything, "OPS-404").
			Return(nil, integration.NewRejectedError(integration.SystemJira, "get issue", 404, nil))

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jira/issues/OPS-404", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, dto.ErrCodeNotFound, decodeError(t, w).Code)
	})
}

func TestJiraHandler_CreateIssue(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		tracker.On("CreateIssue", mock.Anything, integration.IssueInput{
			Summary:    "Fix login",
			ProjectKey: "OPS",
			Priority:   "High",
		}).Return(&integration.Issue{Key: "OPS-12", Summary: "Fix login"}, nil).Once()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/jira/issues",
			`{"summary":"Fix login","project_key":"OPS","priority":"High"}`))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"key":"OPS-12"`)
		tracker.AssertExpectations(t)
	})

	invalid := []struct {
		name string
		body string
	}{
		{"missing summary", `{"description":"no summary"}`},
		{"empty summary", `{"summary":""}`},
		{"whitespace summary", `{"summary":"   "}`},
		{"malformed body", `{"summary":`},
	}
	for _, tt := range invalid {
		t.Run(tt.name+" never reaches the tracker", func(t *testing.T) {
			tracker, engine := setupJiraHandler()

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, jsonRequest(http.MethodPost, "/api/jira/issues", tt.body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.NotEmpty(t, decodeError(t, w).Error)
			assert.Empty(t, tracker.Calls)
		})
	}
}

func TestJiraHandler_UpdateIssue(t *testing.T) {
	t.Run("updated", func(t *testing.T) {
		tracker, engine := setupJiraHandler()
		priority := "Low"
		tracker.On("UpdateIssue", mock.Anything, "OPS-3", integration.IssuePatch{Priority: &priority}).
			Return(nil).Once()

		w := httptest.NewRecorder()
		engine.ServeHTTP(w, jsonRequest(http.MethodPut, "/api/jira/issues/OPS-3", `{"priority":"Low"}`))

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Data IssueUpdateResult `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, IssueUpdateResult{Key: "OPS-3", Updated: true}, resp.Data)
		tracker.AssertExpectations(t)
	})

	for name, body := range map[string]string{
		"empty patch":     `{}`,
		"blank summary":   `{"summary":"  "}`,
		"malformed patch": `[1,2]`,
	} {
		t.Run(name+" is rejected", func(t *testing.T) {
			tracker, engine := setupJiraHandler()

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, jsonRequest(http.MethodPut, "/api/jira/issues/OPS-3", body))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, tracker.Calls)
		})
	}
}
