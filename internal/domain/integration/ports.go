package integration

import "context"

// DealStatusAllNotDeleted is the CRM listing filter that returns every deal except deleted ones
const DealStatusAllNotDeleted = "all_not_deleted"

// IssueTracker is the port for the issue tracker.
// Implementations bind credentials at construction and are safe for concurrent use.
//
// Failure contract for every operation:
//   - ErrUpstreamUnavailable on transport failure or timeout
//   - ErrUpstreamRejected on a non-2xx response (401/403 included)
//   - ErrNotFound when the tracker reports that the record does not exist
type IssueTracker interface {
	// ListIssues runs a query against the tracker. The query is passed through verbatim.
	ListIssues(ctx context.Context, query string, maxResults int) ([]Issue, error)

	// ListAllIssues runs a query and follows pagination until the last page, fetching
	// pageSize issues per request
	ListAllIssues(ctx context.Context, query string, pageSize int) ([]Issue, error)

	// GetIssue fetches one issue by key
	GetIssue(ctx context.Context, key string) (*Issue, error)

	// CreateIssue creates an issue and returns it with the tracker-assigned key.
	// Summary must be non-empty.
	CreateIssue(ctx context.Context, input IssueInput) (*Issue, error)

	// UpdateIssue sends only the fields present in the patch
	UpdateIssue(ctx context.Context, key string, patch IssuePatch) error
}

// CRM is the port for the sales CRM.
// It shares the failure contract of IssueTracker.
type CRM interface {
	// ListDeals lists deals matching a status filter (e.g. DealStatusAllNotDeleted)
	ListDeals(ctx context.Context, status string, limit int) ([]Deal, error)

	// ListAllDeals lists every deal matching a status filter, pageSize per request
	ListAllDeals(ctx context.Context, status string, pageSize int) ([]Deal, error)

	// GetDeal fetches one deal by id
	GetDeal(ctx context.Context, id int64) (*Deal, error)

	// CreateDeal creates a deal. Title must be non-empty.
	CreateDeal(ctx context.Context, input DealInput) (*Deal, error)

	// UpdateDeal merges the present patch fields into the upstream deal
	UpdateDeal(ctx context.Context, id int64, patch DealPatch) (*Deal, error)

	// ListPersons lists contacts
	ListPersons(ctx context.Context, limit int) ([]Person, error)

	// CreatePerson creates a contact. Name must be non-empty.
	CreatePerson(ctx context.Context, input PersonInput) (*Person, error)
}
