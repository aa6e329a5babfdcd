package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/infrastructure/logger"
	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
)

// WebhookAckMessage is returned for every parseable delivery, whatever the reactor did
const WebhookAckMessage = "webhook received"

// WebhookHandler receives tracker and CRM webhook deliveries
type WebhookHandler struct {
	BaseHandler
	service *app.WebhookService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(service *app.WebhookService) *WebhookHandler {
	return &WebhookHandler{service: service}
}

// RegisterRoutes mounts the webhook routes under rg
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	hooks := rg.Group("/webhooks")
	hooks.POST("/jira", h.HandleJira)
	hooks.POST("/pipedrive", h.HandlePipedrive)
}

// HandleJira handles POST /api/webhooks/jira.
// The mirror runs before the acknowledgement; its failures are logged, never returned.
func (h *WebhookHandler) HandleJira(c *gin.Context) {
	var payload JiraWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "invalid webhook payload")
		return
	}

	result := h.service.HandleJiraEvent(c.Request.Context(), payload.ToEvent())
	h.ack(c, result)
}

// HandlePipedrive handles POST /api/webhooks/pipedrive
func (h *WebhookHandler) HandlePipedrive(c *gin.Context) {
	var payload PipedriveWebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidJSON, "invalid webhook payload")
		return
	}

	result := h.service.HandlePipedriveEvent(c.Request.Context(), payload.ToEvent())
	h.ack(c, result)
}

func (h *WebhookHandler) ack(c *gin.Context, result app.WebhookResult) {
	logger.GetGinLogger(c).Debug("Webhook processed",
		zap.String("outcome", string(result.Outcome)),
		zap.String("ref", result.Ref),
	)
	c.Header("X-Webhook-Outcome", string(result.Outcome))
	c.JSON(http.StatusOK, dto.NewMessageResponse(WebhookAckMessage))
}
