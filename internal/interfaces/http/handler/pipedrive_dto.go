package handler

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
)

// ListDealsQuery holds the query parameters of GET /api/pipedrive/deals
type ListDealsQuery struct {
	Status string `form:"status" binding:"omitempty,oneof=open won lost deleted all_not_deleted"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ListPersonsQuery holds the query parameters of GET /api/pipedrive/persons
type ListPersonsQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// DealIDParam binds the :id path segment
type DealIDParam struct {
	ID int64 `uri:"id" binding:"required,gt=0"`
}

// CreateDealRequest is the body of POST /api/pipedrive/deals
type CreateDealRequest struct {
	Title    string           `json:"title" binding:"required,max=255"`
	Value    *decimal.Decimal `json:"value"`
	Currency string           `json:"currency" binding:"omitempty,len=3"`
	Status   string           `json:"status" binding:"omitempty,oneof=open won lost"`
	StageID  *int64           `json:"stage_id"`
	PersonID *int64           `json:"person_id"`
	OrgID    *int64           `json:"org_id"`
}

// Validate rejects a blank title and a negative value
func (r *CreateDealRequest) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return shared.NewRequiredFieldError("title")
	}
	if r.Value != nil && r.Value.IsNegative() {
		return shared.NewValidationError("value", "value cannot be negative")
	}
	return nil
}

// ToInput converts the request to the CRM port input
func (r *CreateDealRequest) ToInput() integration.DealInput {
	input := integration.DealInput{
		Title:    r.Title,
		Currency: r.Currency,
		Status:   integration.DealStatus(r.Status),
		StageID:  r.StageID,
		PersonID: r.PersonID,
		OrgID:    r.OrgID,
	}
	if r.Value != nil {
		input.Value = *r.Value
	}
	return input
}

// UpdateDealRequest is the body of PUT /api/pipedrive/deals/:id. Absent fields are untouched.
type UpdateDealRequest struct {
	Title    *string          `json:"title" binding:"omitempty,max=255"`
	Value    *decimal.Decimal `json:"value"`
	Currency *string          `json:"currency" binding:"omitempty,len=3"`
	Status   *string          `json:"status" binding:"omitempty,oneof=open won lost deleted"`
	StageID  *int64           `json:"stage_id"`
	PersonID *int64           `json:"person_id"`
	OrgID    *int64           `json:"org_id"`
}

// Validate rejects an empty patch, a blank title and a negative value
func (r *UpdateDealRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return shared.NewValidationError("title", "title cannot be blank")
	}
	if r.Value != nil && r.Value.IsNegative() {
		return shared.NewValidationError("value", "value cannot be negative")
	}
	if r.ToPatch().IsEmpty() {
		return shared.NewValidationError("", "at least one field must be provided")
	}
	return nil
}

// ToPatch converts the request to the CRM port patch
func (r *UpdateDealRequest) ToPatch() integration.DealPatch {
	patch := integration.DealPatch{
		Title:    r.Title,
		Value:    r.Value,
		Currency: r.Currency,
		StageID:  r.StageID,
		PersonID: r.PersonID,
		OrgID:    r.OrgID,
	}
	if r.Status != nil {
		status := integration.DealStatus(*r.Status)
		patch.Status = &status
	}
	return patch
}

// CreatePersonRequest is the body of POST /api/pipedrive/persons
type CreatePersonRequest struct {
	Name  string `json:"name" binding:"required,max=255"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
	OrgID *int64 `json:"org_id"`
}

// Validate rejects a blank name
func (r *CreatePersonRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return shared.NewRequiredFieldError("name")
	}
	return nil
}

// ToInput converts the request to the CRM port input
func (r *CreatePersonRequest) ToInput() integration.PersonInput {
	return integration.PersonInput{
		Name:  r.Name,
		Email: r.Email,
		Phone: r.Phone,
		OrgID: r.OrgID,
	}
}
