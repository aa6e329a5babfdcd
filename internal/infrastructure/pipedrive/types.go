package pipedrive

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Common Pipedrive API Response Types
// ---------------------------------------------------------------------------

// envelope is the wrapper of every Pipedrive v1 response
type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error,omitempty"`
	ErrorInfo string          `json:"error_info,omitempty"`

	AdditionalData *additionalData `json:"additional_data,omitempty"`
}

// additionalData carries the pagination block of list responses
type additionalData struct {
	Pagination *pagination `json:"pagination,omitempty"`
}

type pagination struct {
	Start                 int  `json:"start"`
	Limit                 int  `json:"limit"`
	MoreItemsInCollection bool `json:"more_items_in_collection"`
	NextStart             int  `json:"next_start,omitempty"`
}

// next returns the start offset of the following page, or false on the last page
func (e *envelope) next() (int, bool) {
	if e.AdditionalData == nil || e.AdditionalData.Pagination == nil {
		return 0, false
	}
	p := e.AdditionalData.Pagination
	if !p.MoreItemsInCollection {
		return 0, false
	}
	if p.NextStart > 0 {
		return p.NextStart, true
	}
	return p.Start + p.Limit, true
}

// ---------------------------------------------------------------------------
// Deal and Person Types
// ---------------------------------------------------------------------------

// pipedriveDeal is a deal as returned by the deals endpoints
type pipedriveDeal struct {
	ID         int64           `json:"id"`
	Title      string          `json:"title"`
	Value      decimal.Decimal `json:"value"`
	Currency   string          `json:"currency"`
	Status     string          `json:"status"`
	StageID    *int64          `json:"stage_id"`
	PersonID   ref             `json:"person_id"`
	OrgID      ref             `json:"org_id"`
	AddTime    pipedriveTime   `json:"add_time"`
	UpdateTime pipedriveTime   `json:"update_time"`
}

// dealRequest is the body of create and update deal calls
type dealRequest struct {
	Title    *string          `json:"title,omitempty"`
	Value    *decimal.Decimal `json:"value,omitempty"`
	Currency *string          `json:"currency,omitempty"`
	Status   *string          `json:"status,omitempty"`
	StageID  *int64           `json:"stage_id,omitempty"`
	PersonID *int64           `json:"person_id,omitempty"`
	OrgID    *int64           `json:"org_id,omitempty"`
}

// pipedrivePerson is a person as returned by the persons endpoints
type pipedrivePerson struct {
	ID    int64          `json:"id"`
	Name  string         `json:"name"`
	Email []contactValue `json:"email"`
	Phone []contactValue `json:"phone"`
	OrgID ref            `json:"org_id"`
}

// personRequest is the body of the create person call
type personRequest struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	OrgID *int64 `json:"org_id,omitempty"`
}

// contactValue is one entry of a person's email or phone list
type contactValue struct {
	Value   string `json:"value"`
	Primary bool   `json:"primary"`
	Label   string `json:"label,omitempty"`
}

// primaryValue returns the primary entry, or the first non-empty one
func primaryValue(values []contactValue) string {
	for _, v := range values {
		if v.Primary && v.Value != "" {
			return v.Value
		}
	}
	for _, v := range values {
		if v.Value != "" {
			return v.Value
		}
	}
	return ""
}

// ref is a foreign reference that Pipedrive returns either as a bare id,
// as an expanded object carrying the id in "value", or as null
type ref struct {
	ID *int64
}

// UnmarshalJSON implements json.Unmarshaler
func (r *ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '{' {
		var expanded struct {
			Value *int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &expanded); err != nil {
			return err
		}
		r.ID = expanded.Value
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	r.ID = &id
	return nil
}

// pipedriveTimeLayout is the timestamp layout used by Pipedrive ("2024-01-15 10:30:00", UTC)
const pipedriveTimeLayout = "2006-01-02 15:04:05"

type pipedriveTime struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler
func (t *pipedriveTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	parsed, err := time.ParseInLocation(pipedriveTimeLayout, s, time.UTC)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed
	return nil
}
