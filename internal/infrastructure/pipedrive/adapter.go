// Package pipedrive implements the CRM port against the Pipedrive REST API v1.
package pipedrive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
)

const (
	// maxResponseSize limits the response body size to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB max response
	// defaultLimit is used when a listing asks for a non-positive page size
	defaultLimit = 100
	// maxLimit is the largest page Pipedrive serves
	maxLimit = 500
)

// Adapter implements integration.CRM for Pipedrive.
// It is immutable after construction and safe for concurrent use.
type Adapter struct {
	config     *Config
	httpClient *http.Client
}

// NewAdapter creates a new Pipedrive adapter with the given configuration
func NewAdapter(config *Config) (*Adapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout:   time.Duration(config.TimeoutSeconds) * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// ---------------------------------------------------------------------------
// Deals
// ---------------------------------------------------------------------------

// ListDeals lists one page of deals with the given status filter. Null entries are dropped.
func (a *Adapter) ListDeals(ctx context.Context, status string, limit int) ([]integration.Deal, error) {
	var raw []*pipedriveDeal
	if _, err := a.do(ctx, "list deals", http.MethodGet, "/deals", dealsQuery(status, limit, 0), nil, &raw); err != nil {
		return nil, err
	}
	return appendDeals(make([]integration.Deal, 0, len(raw)), raw), nil
}

// ListAllDeals advances start while Pipedrive reports more items in the collection
func (a *Adapter) ListAllDeals(ctx context.Context, status string, pageSize int) ([]integration.Deal, error) {
	var (
		deals []integration.Deal
		start int
	)
	for {
		var raw []*pipedriveDeal
		env, err := a.do(ctx, "list all deals", http.MethodGet, "/deals", dealsQuery(status, pageSize, start), nil, &raw)
		if err != nil {
			return nil, err
		}
		deals = appendDeals(deals, raw)

		next, more := env.next()
		if !more {
			return deals, nil
		}
		if next <= start {
			return nil, integration.NewInvalidResponseError(integration.SystemPipedrive, "list all deals",
				fmt.Errorf("pagination did not advance past start %d", start))
		}
		start = next
	}
}

func dealsQuery(status string, limit, start int) url.Values {
	if status == "" {
		status = integration.DealStatusAllNotDeleted
	}
	query := url.Values{}
	query.Set("status", status)
	query.Set("limit", strconv.Itoa(clampLimit(limit)))
	if start > 0 {
		query.Set("start", strconv.Itoa(start))
	}
	return query
}

func appendDeals(dst []integration.Deal, page []*pipedriveDeal) []integration.Deal {
	for _, d := range page {
		if d == nil {
			continue
		}
		dst = append(dst, toDeal(d))
	}
	return dst
}

// GetDeal fetches a single deal by id
func (a *Adapter) GetDeal(ctx context.Context, id int64) (*integration.Deal, error) {
	var raw *pipedriveDeal
	if _, err := a.do(ctx, "get deal", http.MethodGet, dealPath(id), nil, nil, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, integration.NewRejectedError(integration.SystemPipedrive, "get deal", http.StatusNotFound, nil)
	}
	deal := toDeal(raw)
	return &deal, nil
}

// CreateDeal creates a deal. Value defaults to 0, currency to the configured default
// and status to open; stage, person and organization are sent only when set.
func (a *Adapter) CreateDeal(ctx context.Context, input integration.DealInput) (*integration.Deal, error) {
	if input.Title == "" {
		return nil, shared.NewRequiredFieldError("title")
	}
	if input.Status != "" && !input.Status.IsValid() {
		return nil, shared.NewValidationError("status", "status must be one of open, won, lost, deleted")
	}

	value := input.Value
	currency := firstNonEmpty(input.Currency, a.config.DefaultCurrency)
	status := string(integration.DealStatusOpen)
	if input.Status != "" {
		status = string(input.Status)
	}

	req := dealRequest{
		Title:    &input.Title,
		Value:    &value,
		Currency: &currency,
		Status:   &status,
		StageID:  input.StageID,
		PersonID: input.PersonID,
		OrgID:    input.OrgID,
	}

	var raw *pipedriveDeal
	if _, err := a.do(ctx, "create deal", http.MethodPost, "/deals", nil, req, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, integration.NewInvalidResponseError(integration.SystemPipedrive, "create deal", errors.New("missing deal data"))
	}
	deal := toDeal(raw)
	return &deal, nil
}

// UpdateDeal merges the present patch fields into the upstream deal
func (a *Adapter) UpdateDeal(ctx context.Context, id int64, patch integration.DealPatch) (*integration.Deal, error) {
	if patch.Title != nil && *patch.Title == "" {
		return nil, shared.NewValidationError("title", "title cannot be empty")
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, shared.NewValidationError("status", "status must be one of open, won, lost, deleted")
	}
	if patch.IsEmpty() {
		return a.GetDeal(ctx, id)
	}

	req := dealRequest{
		Title:    patch.Title,
		Value:    patch.Value,
		Currency: patch.Currency,
		StageID:  patch.StageID,
		PersonID: patch.PersonID,
		OrgID:    patch.OrgID,
	}
	if patch.Status != nil {
		status := string(*patch.Status)
		req.Status = &status
	}

	var raw *pipedriveDeal
	if _, err := a.do(ctx, "update deal", http.MethodPut, dealPath(id), nil, req, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, integration.NewInvalidResponseError(integration.SystemPipedrive, "update deal", errors.New("missing deal data"))
	}
	deal := toDeal(raw)
	return &deal, nil
}

// ---------------------------------------------------------------------------
// Persons
// ---------------------------------------------------------------------------

// ListPersons lists contacts
func (a *Adapter) ListPersons(ctx context.Context, limit int) ([]integration.Person, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(clampLimit(limit)))

	var raw []*pipedrivePerson
	if _, err := a.do(ctx, "list persons", http.MethodGet, "/persons", query, nil, &raw); err != nil {
		return nil, err
	}

	persons := make([]integration.Person, 0, len(raw))
	for _, p := range raw {
		if p == nil {
			continue
		}
		persons = append(persons, toPerson(p))
	}
	return persons, nil
}

// CreatePerson creates a contact
func (a *Adapter) CreatePerson(ctx context.Context, input integration.PersonInput) (*integration.Person, error) {
	if input.Name == "" {
		return nil, shared.NewRequiredFieldError("name")
	}

	req := personRequest{
		Name:  input.Name,
		Email: input.Email,
		Phone: input.Phone,
		OrgID: input.OrgID,
	}

	var raw *pipedrivePerson
	if _, err := a.do(ctx, "create person", http.MethodPost, "/persons", nil, req, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, integration.NewInvalidResponseError(integration.SystemPipedrive, "create person", errors.New("missing person data"))
	}
	person := toPerson(raw)
	return &person, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

// do performs an HTTP request to the Pipedrive API and decodes the envelope's data into out.
// The envelope is returned so list calls can read its pagination block.
func (a *Adapter) do(ctx context.Context, op, method, path string, query url.Values, payload, out any) (*envelope, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("pipedrive: failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	if query == nil {
		query = url.Values{}
	}
	query.Set("api_token", a.config.APIToken)
	endpoint := a.config.APIBaseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("pipedrive: failed to create request: %w", redact(err, a.config.APIToken))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, integration.NewUnavailableError(integration.SystemPipedrive, op, redact(err, a.config.APIToken))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, integration.NewUnavailableError(integration.SystemPipedrive, op, redact(err, a.config.APIToken))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, integration.NewRejectedError(integration.SystemPipedrive, op, resp.StatusCode, respBody)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		return nil, integration.NewInvalidResponseError(integration.SystemPipedrive, op, err)
	}
	if !env.Success {
		return nil, integration.NewRejectedError(integration.SystemPipedrive, op, resp.StatusCode, respBody)
	}

	if out == nil || len(env.Data) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return nil, integration.NewInvalidResponseError(integration.SystemPipedrive, op, err)
	}
	return &env, nil
}

// redact strips the API token from URL errors produced by net/http
func redact(err error, token string) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(token), "REDACTED")
	}
	return err
}

func dealPath(id int64) string {
	return "/deals/" + strconv.FormatInt(id, 10)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultLimit
	case limit > maxLimit:
		return maxLimit
	default:
		return limit
	}
}

// toDeal converts a Pipedrive deal to the normalized Deal
func toDeal(d *pipedriveDeal) integration.Deal {
	return integration.Deal{
		ID:         d.ID,
		Title:      d.Title,
		Value:      d.Value,
		Currency:   d.Currency,
		Status:     integration.DealStatus(d.Status),
		StageID:    d.StageID,
		PersonID:   d.PersonID.ID,
		OrgID:      d.OrgID.ID,
		AddTime:    d.AddTime.Time,
		UpdateTime: d.UpdateTime.Time,
	}
}

// toPerson converts a Pipedrive person to the normalized Person
func toPerson(p *pipedrivePerson) integration.Person {
	return integration.Person{
		ID:    p.ID,
		Name:  p.Name,
		Email: primaryValue(p.Email),
		Phone: primaryValue(p.Phone),
		OrgID: p.OrgID.ID,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Ensure Adapter implements CRM interface
var _ integration.CRM = (*Adapter)(nil)
