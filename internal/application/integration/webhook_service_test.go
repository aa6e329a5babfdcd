package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/dealbridge/gateway/internal/domain/integration"
	"github.com/dealbridge/gateway/internal/domain/shared"
)

func newTestWebhookService(t *testing.T, opts ...WebhookOption) (*WebhookService, *MockIssueTracker, *MockCRM) {
	t.Helper()
	tracker := new(MockIssueTracker)
	crm := new(MockCRM)
	defaults := DefaultSyncDefaults()
	defaults.ProjectKey = "OPS"
	svc := NewWebhookService(tracker, crm, defaults, nil, zaptest.NewLogger(t), opts...)
	return svc, tracker, crm
}

func doneEvent(key string) JiraWebhookEvent {
	return JiraWebhookEvent{
		Event: JiraEventIssueUpdated,
		Issue: integration.Issue{Key: key, Summary: "Fix bug", Status: integration.IssueStatusDone},
	}
}

func TestHandleJiraEvent_DoneCreatesDeal(t *testing.T) {
	svc, _, crm := newTestWebhookService(t)

	crm.On("CreateDeal", mock.Anything, integration.DealInput{
		Title:    "[ABC-1] Fix bug",
		Value:    decimal.Zero,
		Currency: "USD",
	}).Return(&integration.Deal{ID: 7, Title: "[ABC-1] Fix bug"}, nil).Once()

	result := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))

	assert.Equal(t, WebhookOutcomeMirrored, result.Outcome)
	assert.Equal(t, "ABC-1", result.Ref)
	require.NotNil(t, result.Deal)
	assert.Equal(t, int64(7), result.Deal.ID)
	crm.AssertExpectations(t)
	crm.AssertNotCalled(t, "ListAllDeals", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleJiraEvent_RepeatedDeliveriesEachCreate(t *testing.T) {
	svc, _, crm := newTestWebhookService(t)
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return(&integration.Deal{ID: 7}, nil)

	first := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))
	second := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))

	assert.Equal(t, WebhookOutcomeMirrored, first.Outcome)
	assert.Equal(t, WebhookOutcomeMirrored, second.Outcome)
	crm.AssertNumberOfCalls(t, "CreateDeal", 2)
}

func TestHandleJiraEvent_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		event JiraWebhookEvent
	}{
		{"status not done", JiraWebhookEvent{Event: JiraEventIssueUpdated, Issue: integration.Issue{Key: "ABC-1", Status: "In Progress"}}},
		{"status case differs", JiraWebhookEvent{Event: JiraEventIssueUpdated, Issue: integration.Issue{Key: "ABC-1", Status: "done"}}},
		{"other event", JiraWebhookEvent{Event: "jira:issue_created", Issue: integration.Issue{Key: "ABC-1", Status: "Done"}}},
		{"missing issue", JiraWebhookEvent{Event: JiraEventIssueUpdated}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, crm := newTestWebhookService(t)
			result := svc.HandleJiraEvent(context.Background(), tt.event)
			assert.Equal(t, WebhookOutcomeIgnored, result.Outcome)
			crm.AssertNotCalled(t, "CreateDeal", mock.Anything, mock.Anything)
		})
	}
}

func TestHandleJiraEvent_CreateFailureIsSwallowed(t *testing.T) {
	svc, _, crm := newTestWebhookService(t)
	upstreamErr := integration.NewUnavailableError(integration.SystemPipedrive, "create deal", errors.New("connection reset"))
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return(nil, upstreamErr)

	result := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))

	assert.Equal(t, WebhookOutcomeMirrorFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, integration.ErrUpstreamUnavailable)
	assert.Nil(t, result.Deal)
}

func TestHandlePipedriveEvent_WonCreatesHighPriorityIssue(t *testing.T) {
	tests := []struct {
		name  string
		event PipedriveWebhookEvent
	}{
		{
			name: "deal.won",
			event: PipedriveWebhookEvent{
				Event: PipedriveEventDealWon,
				Deal:  integration.Deal{ID: 42, Title: "Acme", Value: decimal.NewFromInt(500), Status: integration.DealStatusWon},
			},
		},
		{
			name: "updated.deal into won",
			event: PipedriveWebhookEvent{
				Event:          PipedriveEventDealUpdated,
				Deal:           integration.Deal{ID: 42, Title: "Acme", Value: decimal.NewFromInt(500), Status: integration.DealStatusWon},
				PreviousStatus: integration.DealStatusOpen,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tracker, _ := newTestWebhookService(t)
			tracker.On("CreateIssue", mock.Anything, integration.IssueInput{
				Summary:     "Deal: Acme",
				Description: "Deal from Pipedrive\nValue: 500\nStatus: won",
				ProjectKey:  "OPS",
				IssueType:   "Task",
				Priority:    "High",
			}).Return(&integration.Issue{Key: "OPS-9", Summary: "Deal: Acme"}, nil).Once()

			result := svc.HandlePipedriveEvent(context.Background(), tt.event)

			assert.Equal(t, WebhookOutcomeMirrored, result.Outcome)
			assert.Equal(t, "42", result.Ref)
			require.NotNil(t, result.Issue)
			assert.Equal(t, "OPS-9", result.Issue.Key)
			tracker.AssertExpectations(t)
		})
	}
}

func TestHandlePipedriveEvent_Ignored(t *testing.T) {
	tests := []struct {
		name  string
		event PipedriveWebhookEvent
	}{
		{"deal.lost", PipedriveWebhookEvent{Event: "deal.lost", Deal: integration.Deal{ID: 1, Status: integration.DealStatusLost}}},
		{"update of already won deal", PipedriveWebhookEvent{
			Event:          PipedriveEventDealUpdated,
			Deal:           integration.Deal{ID: 1, Status: integration.DealStatusWon},
			PreviousStatus: integration.DealStatusWon,
		}},
		{"update without previous state", PipedriveWebhookEvent{
			Event: PipedriveEventDealUpdated,
			Deal:  integration.Deal{ID: 1, Status: integration.DealStatusWon},
		}},
		{"update to open", PipedriveWebhookEvent{
			Event:          PipedriveEventDealUpdated,
			Deal:           integration.Deal{ID: 1, Status: integration.DealStatusOpen},
			PreviousStatus: integration.DealStatusLost,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, tracker, _ := newTestWebhookService(t)
			result := svc.HandlePipedriveEvent(context.Background(), tt.event)
			assert.Equal(t, WebhookOutcomeIgnored, result.Outcome)
			tracker.AssertNotCalled(t, "CreateIssue", mock.Anything, mock.Anything)
		})
	}
}

func TestHandlePipedriveEvent_CreateFailureIsSwallowed(t *testing.T) {
	svc, tracker, _ := newTestWebhookService(t)
	tracker.On("CreateIssue", mock.Anything, mock.Anything).
		Return(nil, integration.NewRejectedError(integration.SystemJira, "create issue", 403, []byte("forbidden")))

	result := svc.HandlePipedriveEvent(context.Background(), PipedriveWebhookEvent{
		Event: PipedriveEventDealWon,
		Deal:  integration.Deal{ID: 3, Title: "Initech", Status: integration.DealStatusWon},
	})

	assert.Equal(t, WebhookOutcomeMirrorFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, integration.ErrUpstreamRejected)
}

// ---------------------------------------------------------------------------
// Opt-in idempotency
// ---------------------------------------------------------------------------

func TestWebhookIdempotency_SuppressesRepeatWhenEnabled(t *testing.T) {
	store := new(MockIdempotencyStore)
	cfg := shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}
	svc, _, crm := newTestWebhookService(t, WithIdempotency(store, cfg))

	store.On("IsProcessed", mock.Anything, "jira:done:ABC-1").Return(false, nil).Once()
	store.On("MarkProcessed", mock.Anything, "jira:done:ABC-1", time.Hour).Return(true, nil).Once()
	store.On("IsProcessed", mock.Anything, "jira:done:ABC-1").Return(true, nil).Once()
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return(&integration.Deal{ID: 1}, nil).Once()

	first := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))
	second := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))

	assert.Equal(t, WebhookOutcomeMirrored, first.Outcome)
	assert.Equal(t, WebhookOutcomeDuplicate, second.Outcome)
	crm.AssertNumberOfCalls(t, "CreateDeal", 1)
	store.AssertExpectations(t)
}

func TestWebhookIdempotency_FailedMirrorIsNotRemembered(t *testing.T) {
	store := new(MockIdempotencyStore)
	svc, tracker, _ := newTestWebhookService(t, WithIdempotency(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}))

	store.On("IsProcessed", mock.Anything, "pipedrive:won:5").Return(false, nil)
	tracker.On("CreateIssue", mock.Anything, mock.Anything).
		Return(nil, integration.NewUnavailableError(integration.SystemJira, "create issue", errors.New("timeout")))

	result := svc.HandlePipedriveEvent(context.Background(), PipedriveWebhookEvent{
		Event: PipedriveEventDealWon,
		Deal:  integration.Deal{ID: 5, Title: "Retry me"},
	})

	assert.Equal(t, WebhookOutcomeMirrorFailed, result.Outcome)
	store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
}

func TestWebhookIdempotency_StoreErrorFallsBackToProcessing(t *testing.T) {
	store := new(MockIdempotencyStore)
	svc, _, crm := newTestWebhookService(t, WithIdempotency(store, shared.IdempotencyConfig{TTL: time.Hour, Enabled: true}))

	store.On("IsProcessed", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return(&integration.Deal{ID: 1}, nil)

	result := svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))
	assert.Equal(t, WebhookOutcomeMirrored, result.Outcome)
}

func TestWebhookIdempotency_DisabledConfigIgnoresStore(t *testing.T) {
	store := new(MockIdempotencyStore)
	svc, _, crm := newTestWebhookService(t, WithIdempotency(store, shared.DefaultIdempotencyConfig()))
	crm.On("CreateDeal", mock.Anything, mock.Anything).Return(&integration.Deal{ID: 1}, nil)

	svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))
	svc.HandleJiraEvent(context.Background(), doneEvent("ABC-1"))

	crm.AssertNumberOfCalls(t, "CreateDeal", 2)
	store.AssertNotCalled(t, "IsProcessed", mock.Anything, mock.Anything)
}
