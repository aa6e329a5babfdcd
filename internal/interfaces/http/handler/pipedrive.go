package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/dealbridge/gateway/internal/domain/integration"
)

// Listing defaults when the caller omits limit
const (
	DefaultDealListSize   = 100
	DefaultPersonListSize = 100
)

// PipedriveHandler exposes the CRM port over HTTP
type PipedriveHandler struct {
	BaseHandler
	crm integration.CRM
}

// NewPipedriveHandler creates a new PipedriveHandler
func NewPipedriveHandler(crm integration.CRM) *PipedriveHandler {
	return &PipedriveHandler{crm: crm}
}

// RegisterRoutes mounts the CRM routes under rg
func (h *PipedriveHandler) RegisterRoutes(rg *gin.RouterGroup) {
	pd := rg.Group("/pipedrive")
	pd.GET("/deals", h.ListDeals)
	pd.GET("/deals/:id", h.GetDeal)
	pd.POST("/deals", h.CreateDeal)
	pd.PUT("/deals/:id", h.UpdateDeal)
	pd.GET("/persons", h.ListPersons)
	pd.POST("/persons", h.CreatePerson)
}

// ListDeals handles GET /api/pipedrive/deals?status=&limit=
func (h *PipedriveHandler) ListDeals(c *gin.Context) {
	var query ListDealsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if query.Status == "" {
		query.Status = integration.DealStatusAllNotDeleted
	}
	if query.Limit == 0 {
		query.Limit = DefaultDealListSize
	}

	deals, err := h.crm.ListDeals(c.Request.Context(), query.Status, query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deals)
}

// GetDeal handles GET /api/pipedrive/deals/:id
func (h *PipedriveHandler) GetDeal(c *gin.Context) {
	var param DealIDParam
	if !h.BindURI(c, &param) {
		return
	}

	deal, err := h.crm.GetDeal(c.Request.Context(), param.ID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// CreateDeal handles POST /api/pipedrive/deals
func (h *PipedriveHandler) CreateDeal(c *gin.Context) {
	var req CreateDealRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	deal, err := h.crm.CreateDeal(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, deal)
}

// UpdateDeal handles PUT /api/pipedrive/deals/:id
func (h *PipedriveHandler) UpdateDeal(c *gin.Context) {
	var param DealIDParam
	if !h.BindURI(c, &param) {
		return
	}
	var req UpdateDealRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	deal, err := h.crm.UpdateDeal(c.Request.Context(), param.ID, req.ToPatch())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, deal)
}

// ListPersons handles GET /api/pipedrive/persons?limit=
func (h *PipedriveHandler) ListPersons(c *gin.Context) {
	var query ListPersonsQuery
	if !h.BindQuery(c, &query) {
		return
	}
	if query.Limit == 0 {
		query.Limit = DefaultPersonListSize
	}

	persons, err := h.crm.ListPersons(c.Request.Context(), query.Limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, persons)
}

// CreatePerson handles POST /api/pipedrive/persons
func (h *PipedriveHandler) CreatePerson(c *gin.Context) {
	var req CreatePersonRequest
	if !h.BindJSON(c, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		h.HandleError(c, err)
		return
	}

	person, err := h.crm.CreatePerson(c.Request.Context(), req.ToInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, person)
}
