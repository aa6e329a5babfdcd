package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
	"github.com/dealbridge/gateway/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// jsonRequest builds a request with a JSON body
func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "validation error",
			err:         shared.NewRequiredFieldError("summary"),
			wantStatus:  http.StatusBadRequest,
			wantCode:    dto.ErrCodeValidation,
			wantMessage: "summary is required",
		},
		{
			name:       "upstream not found",
			err:        integration.NewRejectedError(integration.SystemJira, "get issue", 404, []byte(`{"errorMessages":["Issue does not exist"]}`)),
			wantStatus: http.StatusNotFound,
			wantCode:   dto.ErrCodeNotFound,
		},
		{
			name:       "upstream unavailable",
			err:        integration.NewUnavailableError(integration.SystemPipedrive, "list deals", errors.New("dial tcp: timeout")),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeUpstreamUnavailable,
		},
		{
			name:       "upstream rejected, wrapped",
			err:        fmt.Errorf("fetch existing deals: %w", integration.NewRejectedError(integration.SystemPipedrive, "list deals", 401, []byte("unauthorized"))),
			wantStatus: http.StatusInternalServerError,
			wantCode:   dto.ErrCodeUpstreamRejected,
		},
		{
			name:        "unknown error hides detail",
			err:         errors.New("nil pointer somewhere"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			c.Set(middleware.RequestIDKey, "req-1")

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.Equal(t, "req-1", resp.RequestID)
			if tt.wantMessage != "" {
				assert.Equal(t, tt.wantMessage, resp.Error)
			} else {
				assert.Equal(t, tt.err.Error(), resp.Error)
			}
		})
	}
}

func TestBaseHandler_HandleErrorNil(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	h.HandleError(c, nil)

	assert.Empty(t, w.Body.String())
}

func TestBaseHandler_BindJSON(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantOK     bool
		wantStatus int
		wantCode   string
	}{
		{"valid", `{"summary":"Fix bug"}`, true, 0, ""},
		{"missing required field", `{"description":"x"}`, false, http.StatusBadRequest, dto.ErrCodeValidation},
		{"malformed json", `{"summary":`, false, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"wrong type", `{"summary":42}`, false, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = jsonRequest(http.MethodPost, "/", tt.body)

			var req CreateIssueRequest
			ok := h.BindJSON(c, &req)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantStatus, w.Code)
				assert.Equal(t, tt.wantCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestBaseHandler_BindJSONValidationMessage(t *testing.T) {
	h := &BaseHandler{}
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(http.MethodPost, "/", `{}`)

	var req CreateDealRequest
	require.False(t, h.BindJSON(c, &req))

	resp := decodeError(t, w)
	assert.Equal(t, "title is required", resp.Error)
	require.Len(t, resp.Details, 1)
	assert.Equal(t, "title", resp.Details[0].Field)
}

func TestBaseHandler_BindOptionalJSON(t *testing.T) {
	h := &BaseHandler{}

	t.Run("empty body is accepted", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

		var req SyncPipedriveToJiraRequest
		assert.True(t, h.BindOptionalJSON(c, &req))
	})

	t.Run("body is decoded when present", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = jsonRequest(http.MethodPost, "/", `{"project_key":"OPS","dry_run":true}`)

		var req SyncPipedriveToJiraRequest
		require.True(t, h.BindOptionalJSON(c, &req))
		assert.Equal(t, "OPS", req.ProjectKey)
		assert.True(t, req.DryRun)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = jsonRequest(http.MethodPost, "/", `not json`)

		var req SyncPipedriveToJiraRequest
		assert.False(t, h.BindOptionalJSON(c, &req))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
