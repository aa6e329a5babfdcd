package integration

import (
	"time"

	"github.com/shopspring/decimal"
)

// IssueStatusDone is the tracker status name that marks an issue as resolved
const IssueStatusDone = "Done"

// ---------------------------------------------------------------------------
// Issue (issue tracker)
// ---------------------------------------------------------------------------

// Issue is the normalized view of a tracker issue.
// It is fetched fresh on every operation and never persisted by the gateway.
type Issue struct {
	// Key is the tracker-assigned key (e.g. "ABC-1")
	Key string `json:"key"`
	// Summary is the one-line title
	Summary string `json:"summary"`
	// Status is the workflow status name (e.g. "Done")
	Status string `json:"status,omitempty"`
	// Priority is the priority name
	Priority string `json:"priority,omitempty"`
	// Assignee is the assignee's account ID, empty when unassigned
	Assignee string `json:"assignee,omitempty"`
	// Description is the rich-text description flattened to plain text
	Description string `json:"description,omitempty"`
	// ProjectKey is the owning project's key
	ProjectKey string `json:"project_key,omitempty"`
	// IssueType is the issue type name
	IssueType string    `json:"issue_type,omitempty"`
	Created   time.Time `json:"created,omitzero"`
	Updated   time.Time `json:"updated,omitzero"`
}

// IssueInput is the payload for creating an issue.
// Empty optional fields fall back to adapter defaults.
type IssueInput struct {
	Summary     string
	Description string
	ProjectKey  string
	IssueType   string
	Priority    string
	Assignee    string
}

// IssuePatch is a partial update; nil fields are left untouched upstream
type IssuePatch struct {
	Summary     *string
	Description *string
	Priority    *string
	Assignee    *string
}

// IsEmpty returns true if the patch carries no field
func (p IssuePatch) IsEmpty() bool {
	return p.Summary == nil && p.Description == nil && p.Priority == nil && p.Assignee == nil
}

// ---------------------------------------------------------------------------
// Deal (CRM)
// ---------------------------------------------------------------------------

// DealStatus represents the lifecycle state of a CRM deal
type DealStatus string

const (
	// DealStatusOpen is an active deal
	DealStatusOpen DealStatus = "open"
	// DealStatusWon is a closed-won deal
	DealStatusWon DealStatus = "won"
	// DealStatusLost is a closed-lost deal
	DealStatusLost DealStatus = "lost"
	// DealStatusDeleted is a deleted deal
	DealStatusDeleted DealStatus = "deleted"
)

// IsValid returns true if the deal status is valid
func (s DealStatus) IsValid() bool {
	switch s {
	case DealStatusOpen, DealStatusWon, DealStatusLost, DealStatusDeleted:
		return true
	default:
		return false
	}
}

// String returns the string representation of DealStatus
func (s DealStatus) String() string {
	return string(s)
}

// IsClosed returns true if the deal can no longer progress
func (s DealStatus) IsClosed() bool {
	return s == DealStatusWon || s == DealStatusLost || s == DealStatusDeleted
}

// Deal is the normalized view of a CRM deal
type Deal struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency,omitempty"`
	Status   DealStatus      `json:"status,omitempty"`
	// StageID, PersonID and OrgID are foreign references, never dereferenced here
	StageID    *int64    `json:"stage_id,omitempty"`
	PersonID   *int64    `json:"person_id,omitempty"`
	OrgID      *int64    `json:"org_id,omitempty"`
	AddTime    time.Time `json:"add_time,omitzero"`
	UpdateTime time.Time `json:"update_time,omitzero"`
}

// DealInput is the payload for creating a deal.
// Zero Value, empty Currency and empty Status fall back to adapter defaults.
type DealInput struct {
	Title    string
	Value    decimal.Decimal
	Currency string
	Status   DealStatus
	StageID  *int64
	PersonID *int64
	OrgID    *int64
}

// DealPatch is a partial update merged into the upstream record
type DealPatch struct {
	Title    *string
	Value    *decimal.Decimal
	Currency *string
	Status   *DealStatus
	StageID  *int64
	PersonID *int64
	OrgID    *int64
}

// IsEmpty returns true if the patch carries no field
func (p DealPatch) IsEmpty() bool {
	return p.Title == nil && p.Value == nil && p.Currency == nil && p.Status == nil &&
		p.StageID == nil && p.PersonID == nil && p.OrgID == nil
}

// ---------------------------------------------------------------------------
// Person (CRM)
// ---------------------------------------------------------------------------

// Person is a CRM contact. Persons are only created on explicit request.
type Person struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	OrgID *int64 `json:"org_id,omitempty"`
}

// PersonInput is the payload for creating a person
type PersonInput struct {
	Name  string
	Email string
	Phone string
	OrgID *int64
}
