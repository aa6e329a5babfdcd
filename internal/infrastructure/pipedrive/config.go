package pipedrive

import (
	"fmt"
	"strings"

	"github.com/dealbridge/gateway/internal/domain/integration"
)

// Config holds configuration for the Pipedrive API v1 integration
type Config struct {
	// APIBaseURL is the API root, including the version segment
	APIBaseURL string
	// APIToken is the personal API token sent as the api_token query parameter
	APIToken string
	// DefaultCurrency is used when a deal is created without a currency
	DefaultCurrency string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// ProductionAPIURL is the public Pipedrive API endpoint
	ProductionAPIURL = "https://api.pipedrive.com/v1"

	defaultCurrency       = "USD"
	defaultTimeoutSeconds = 30
)

// Errors for Pipedrive configuration
var (
	ErrConfigMissingAPIToken = fmt.Errorf("pipedrive: API token is required: %w", integration.ErrNotConfigured)
)

// NewConfig creates a new Pipedrive configuration with defaults
func NewConfig(apiToken string) *Config {
	return &Config{
		APIBaseURL:      ProductionAPIURL,
		APIToken:        apiToken,
		DefaultCurrency: defaultCurrency,
		TimeoutSeconds:  defaultTimeoutSeconds,
	}
}

// Validate validates the Pipedrive configuration and fills zero-valued defaults
func (c *Config) Validate() error {
	if c.APIToken == "" {
		return ErrConfigMissingAPIToken
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ProductionAPIURL
	}
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = defaultCurrency
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = defaultTimeoutSeconds
	}
	return nil
}
