package integration

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Synchronization intents
// ---------------------------------------------------------------------------

// DealIntent is a planned deal creation derived from a tracker issue.
// It lives only for the duration of one reconciliation pass or webhook delivery.
type DealIntent struct {
	// SourceKey is the key of the issue the deal mirrors
	SourceKey string `json:"source_key"`
	// DedupKey is the deal title the destination snapshot is checked against
	DedupKey string `json:"dedup_key"`
	// Input is the derived deal payload
	Input DealInput `json:"-"`
}

// IssueIntent is a planned issue creation derived from a CRM deal
type IssueIntent struct {
	// SourceDealID is the id of the deal the issue mirrors
	SourceDealID int64 `json:"source_deal_id"`
	// DedupKey is the issue summary the destination snapshot is checked against
	DedupKey string `json:"dedup_key"`
	// Input is the derived issue payload
	Input IssueInput `json:"-"`
}

// DealTitleForIssue derives the mirrored deal title: "[KEY] summary"
func DealTitleForIssue(issue Issue) string {
	return "[" + issue.Key + "] " + issue.Summary
}

// IssueSummaryForDeal derives the mirrored issue summary: "Deal: title"
func IssueSummaryForDeal(deal Deal) string {
	return "Deal: " + deal.Title
}

// IssueDescriptionForDeal derives the mirrored issue description
func IssueDescriptionForDeal(deal Deal) string {
	return "Deal from Pipedrive\nValue: " + deal.Value.String() + "\nStatus: " + deal.Status.String()
}

// NewDealIntent builds the deal creation intent for an issue
func NewDealIntent(issue Issue, value decimal.Decimal, currency string) DealIntent {
	title := DealTitleForIssue(issue)
	return DealIntent{
		SourceKey: issue.Key,
		DedupKey:  title,
		Input: DealInput{
			Title:    title,
			Value:    value,
			Currency: currency,
		},
	}
}

// IssueTemplate carries the destination settings for deal->issue mirroring
type IssueTemplate struct {
	ProjectKey string
	IssueType  string
	Priority   string
}

// NewIssueIntent builds the issue creation intent for a deal
func NewIssueIntent(deal Deal, tmpl IssueTemplate) IssueIntent {
	summary := IssueSummaryForDeal(deal)
	return IssueIntent{
		SourceDealID: deal.ID,
		DedupKey:     summary,
		Input: IssueInput{
			Summary:     summary,
			Description: IssueDescriptionForDeal(deal),
			ProjectKey:  tmpl.ProjectKey,
			IssueType:   tmpl.IssueType,
			Priority:    tmpl.Priority,
		},
	}
}

// SourceRef returns the deal id as a string for reports and logs
func (i IssueIntent) SourceRef() string {
	return strconv.FormatInt(i.SourceDealID, 10)
}
