package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
)

// HeaderAPIKey is the header carrying the shared gateway secret
const HeaderAPIKey = "X-API-Key"

// APIKeyAuth rejects requests whose X-API-Key does not match apiKey.
// The comparison runs in constant time. Paths listed in skipPaths are served without a key.
// An empty apiKey rejects every protected request, so a missing secret never opens the API.
func APIKeyAuth(apiKey string, skipPaths ...string) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(skipPaths))
	for _, p := range skipPaths {
		skip[p] = struct{}{}
	}
	expected := []byte(apiKey)

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		provided := []byte(c.GetHeader(HeaderAPIKey))
		if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponseWithRequestID(
				dto.ErrCodeUnauthorized,
				"invalid or missing API key",
				GetRequestID(c),
			))
			return
		}

		c.Next()
	}
}
