package handler

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	app "github.com/dealbridge/gateway/internal/application/integration"
	"github.com/dealbridge/gateway/internal/domain/integration"
)

// JiraWebhookPayload is the subset of a tracker webhook delivery the gateway reads
type JiraWebhookPayload struct {
	WebhookEvent string            `json:"webhookEvent"`
	Timestamp    int64             `json:"timestamp"`
	Issue        *JiraWebhookIssue `json:"issue"`
}

// JiraWebhookIssue is the issue embedded in a tracker webhook delivery
type JiraWebhookIssue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary   string       `json:"summary"`
		Status    *webhookName `json:"status"`
		Priority  *webhookName `json:"priority"`
		IssueType *webhookName `json:"issuetype"`
		Project   *struct {
			Key string `json:"key"`
		} `json:"project"`
		Assignee *struct {
			AccountID string `json:"accountId"`
		} `json:"assignee"`
	} `json:"fields"`
}

type webhookName struct {
	Name string `json:"name"`
}

func (n *webhookName) value() string {
	if n == nil {
		return ""
	}
	return n.Name
}

// ToEvent converts the delivery to the reactor input
func (p *JiraWebhookPayload) ToEvent() app.JiraWebhookEvent {
	event := app.JiraWebhookEvent{Event: p.WebhookEvent}
	if p.Issue == nil {
		return event
	}
	f := p.Issue.Fields
	event.Issue = integration.Issue{
		Key:       p.Issue.Key,
		Summary:   f.Summary,
		Status:    f.Status.value(),
		Priority:  f.Priority.value(),
		IssueType: f.IssueType.value(),
	}
	if f.Project != nil {
		event.Issue.ProjectKey = f.Project.Key
	}
	if f.Assignee != nil {
		event.Issue.Assignee = f.Assignee.AccountID
	}
	return event
}

// PipedriveWebhookPayload accepts both CRM webhook layouts:
// v1 sends {event, current, previous} and v2 sends {meta{action, entity}, data, previous}.
type PipedriveWebhookPayload struct {
	Event    string                `json:"event"`
	Current  *PipedriveWebhookDeal `json:"current"`
	Data     *PipedriveWebhookDeal `json:"data"`
	Previous *PipedriveWebhookDeal `json:"previous"`
	Meta     struct {
		Action string `json:"action"`
		Entity string `json:"entity"`
		// Object is the v1 name of Entity
		Object string `json:"object"`
	} `json:"meta"`
}

// PipedriveWebhookDeal is the deal snapshot embedded in a CRM webhook delivery
type PipedriveWebhookDeal struct {
	ID       int64           `json:"id"`
	Title    string          `json:"title"`
	Value    decimal.Decimal `json:"value"`
	Currency string          `json:"currency"`
	Status   string          `json:"status"`
	StageID  webhookRef      `json:"stage_id"`
	PersonID webhookRef      `json:"person_id"`
	OrgID    webhookRef      `json:"org_id"`
}

// v2 action names mapped to the v1 event verbs
var pipedriveActionVerbs = map[string]string{
	"create": "added",
	"change": "updated",
	"delete": "deleted",
}

// EventName returns the v1-style event name ("updated.deal", "deal.won"...)
func (p *PipedriveWebhookPayload) EventName() string {
	if p.Event != "" {
		return p.Event
	}
	entity := p.Meta.Entity
	if entity == "" {
		entity = p.Meta.Object
	}
	verb, ok := pipedriveActionVerbs[p.Meta.Action]
	if !ok {
		verb = p.Meta.Action
	}
	if verb == "" || entity == "" {
		return ""
	}
	return verb + "." + entity
}

// ToEvent converts the delivery to the reactor input
func (p *PipedriveWebhookPayload) ToEvent() app.PipedriveWebhookEvent {
	event := app.PipedriveWebhookEvent{Event: p.EventName()}
	current := p.Current
	if current == nil {
		current = p.Data
	}
	if current != nil {
		event.Deal = integration.Deal{
			ID:       current.ID,
			Title:    current.Title,
			Value:    current.Value,
			Currency: current.Currency,
			Status:   integration.DealStatus(current.Status),
			StageID:  current.StageID.ptr(),
			PersonID: current.PersonID.ptr(),
			OrgID:    current.OrgID.ptr(),
		}
	}
	if p.Previous != nil {
		event.PreviousStatus = integration.DealStatus(p.Previous.Status)
	}
	return event
}

// webhookRef decodes a foreign reference sent as a bare id, null, or an object with "value"
type webhookRef struct {
	id int64
}

func (r *webhookRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			Value int64 `json:"value"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		r.id = obj.Value
		return nil
	}
	return json.Unmarshal(data, &r.id)
}

func (r webhookRef) ptr() *int64 {
	if r.id == 0 {
		return nil
	}
	id := r.id
	return &id
}
