package handler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dealbridge/gateway/internal/domain/integration"
)

// MockIssueTracker is a mock implementation of integration.IssueTracker
type MockIssueTracker struct {
	mock.Mock
}

func (m *MockIssueTracker) ListIssues(ctx context.Context, query string, maxResults int) ([]integration.Issue, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Issue), args.Error(1)
}

func (m *MockIssueTracker) ListAllIssues(ctx context.Context, query string, pageSize int) ([]integration.Issue, error) {
	args := m.Called(ctx, query, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Issue), args.Error(1)
}

func (m *MockIssueTracker) GetIssue(ctx context.Context, key string) (*integration.Issue, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Issue), args.Error(1)
}

func (m *MockIssueTracker) CreateIssue(ctx context.Context, input integration.IssueInput) (*integration.Issue, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Issue), args.Error(1)
}

func (m *MockIssueTracker) UpdateIssue(ctx context.Context, key string, patch integration.IssuePatch) error {
	args := m.Called(ctx, key, patch)
	return args.Error(0)
}

// MockCRM is a mock implementation of integration.CRM
type MockCRM struct {
	mock.Mock
}

func (m *MockCRM) ListDeals(ctx context.Context, status string, limit int) ([]integration.Deal, error) {
	args := m.Called(ctx, status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Deal), args.Error(1)
}

func (m *MockCRM) ListAllDeals(ctx context.Context, status string, pageSize int) ([]integration.Deal, error) {
	args := m.Called(ctx, status, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Deal), args.Error(1)
}

func (m *MockCRM) GetDeal(ctx context.Context, id int64) (*integration.Deal, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Deal), args.Error(1)
}

func (m *MockCRM) CreateDeal(ctx context.Context, input integration.DealInput) (*integration.Deal, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Deal), args.Error(1)
}

func (m *MockCRM) UpdateDeal(ctx context.Context, id int64, patch integration.DealPatch) (*integration.Deal, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Deal), args.Error(1)
}

func (m *MockCRM) ListPersons(ctx context.Context, limit int) ([]integration.Person, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]integration.Person), args.Error(1)
}

func (m *MockCRM) CreatePerson(ctx context.Context, input integration.PersonInput) (*integration.Person, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*integration.Person), args.Error(1)
}
