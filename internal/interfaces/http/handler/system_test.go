package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEngine mounts registrars under /api the way the router does, without auth
func newTestEngine(registrars ...interface{ RegisterRoutes(*gin.RouterGroup) }) *gin.Engine {
	engine := gin.New()
	api := engine.Group("/api")
	for _, r := range registrars {
		r.RegisterRoutes(api)
	}
	return engine
}

func TestNewSystemHandler(t *testing.T) {
	h := NewSystemHandler("dealbridge-gateway", "1.2.3")
	assert.NotNil(t, h)
	assert.False(t, h.startTime.IsZero())
}

func TestSystemHandler_Health(t *testing.T) {
	h := NewSystemHandler("dealbridge-gateway", "1.2.3")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	h.Health(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "dealbridge-gateway", resp.Service)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, runtime.Version(), resp.GoVersion)
	assert.NotEmpty(t, resp.Uptime)

	_, err := time.Parse(time.RFC3339, resp.Timestamp)
	assert.NoError(t, err)
}
