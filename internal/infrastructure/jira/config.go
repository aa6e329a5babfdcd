package jira

import (
	"fmt"
	"strings"

	"github.com/dealbridge/gateway/internal/domain/integration"
)

// Config holds configuration for the Jira Cloud REST v3 integration
type Config struct {
	// BaseURL is the site URL, e.g. https://example.atlassian.net
	BaseURL string
	// Email is the account email used for basic auth
	Email string
	// APIToken is the Atlassian API token paired with Email
	APIToken string
	// DefaultProjectKey is used when a create request carries no project
	DefaultProjectKey string
	// DefaultIssueType is used when a create request carries no issue type
	DefaultIssueType string
	// DefaultPriority is used when a create request carries no priority
	DefaultPriority string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	defaultIssueType      = "Task"
	defaultPriority       = "Medium"
	defaultTimeoutSeconds = 30
)

// Errors for Jira configuration. All of them match integration.ErrNotConfigured.
var (
	ErrConfigMissingBaseURL  = fmt.Errorf("jira: base URL is required: %w", integration.ErrNotConfigured)
	ErrConfigMissingEmail    = fmt.Errorf("jira: account email is required: %w", integration.ErrNotConfigured)
	ErrConfigMissingAPIToken = fmt.Errorf("jira: API token is required: %w", integration.ErrNotConfigured)
)

// NewConfig creates a new Jira configuration with defaults
func NewConfig(baseURL, email, apiToken string) *Config {
	return &Config{
		BaseURL:          baseURL,
		Email:            email,
		APIToken:         apiToken,
		DefaultIssueType: defaultIssueType,
		DefaultPriority:  defaultPriority,
		TimeoutSeconds:   defaultTimeoutSeconds,
	}
}

// Validate validates the Jira configuration and fills zero-valued defaults
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	if c.Email == "" {
		return ErrConfigMissingEmail
	}
	if c.APIToken == "" {
		return ErrConfigMissingAPIToken
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.DefaultIssueType == "" {
		c.DefaultIssueType = defaultIssueType
	}
	if c.DefaultPriority == "" {
		c.DefaultPriority = defaultPriority
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}
