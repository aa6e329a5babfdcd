package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/interfaces/http/dto"
)

// SyncHandler triggers reconciliation passes
type SyncHandler struct {
	BaseHandler
	service *app.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(service *app.SyncService) *SyncHandler {
	return &SyncHandler{service: service}
}

// RegisterRoutes mounts the sync routes under rg
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	sync.POST("/jira-to-pipedrive", h.SyncJiraToPipedrive)
	sync.POST("/pipedrive-to-jira", h.SyncPipedriveToJira)
}

// SyncJiraToPipedrive handles POST /api/sync/jira-to-pipedrive.
// Per-record failures are reported in "failed" with a 200; only snapshot failures fail the call.
func (h *SyncHandler) SyncJiraToPipedrive(c *gin.Context) {
	var req SyncJiraToPipedriveRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	report, err := h.service.SyncIssuesToDeals(c.Request.Context(), req.ToServiceRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewIssueToDealSyncResponse(report))
}

// SyncPipedriveToJira handles POST /api/sync/pipedrive-to-jira
func (h *SyncHandler) SyncPipedriveToJira(c *gin.Context) {
	var req SyncPipedriveToJiraRequest
	if !h.BindOptionalJSON(c, &req) {
		return
	}

	report, err := h.service.SyncDealsToIssues(c.Request.Context(), req.ToServiceRequest())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDealToIssueSyncResponse(report))
}
