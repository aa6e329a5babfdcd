package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of gateway environment variables (e.g. GATEWAY_HTTP_PORT)
const EnvPrefix = "GATEWAY"

// Config holds all application configuration
type Config struct {
	App       AppConfig       `yaml:"app"`
	Log       LogConfig       `yaml:"log"`
	HTTP      HTTPConfig      `yaml:"http"`
	Jira      JiraConfig      `yaml:"jira"`
	Pipedrive PipedriveConfig `yaml:"pipedrive"`
	Sync      SyncConfig      `yaml:"sync"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Redis     RedisConfig     `yaml:"redis"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name    string `yaml:"name"`
	Env     string `yaml:"env"`
	Version string `yaml:"version,omitempty"`
	// APIKey is the shared secret expected in the X-API-Key header
	APIKey string `yaml:"api_key"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level      string `yaml:"level"`  // debug, info, warn, error
	Format     string `yaml:"format"` // json, console
	Output     string `yaml:"output"` // stdout, stderr, or file path
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	Port              string        `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	MaxHeaderBytes    int           `yaml:"max_header_bytes"`
	MaxBodySize       int64         `yaml:"max_body_size"`
	RateLimitEnabled  bool          `yaml:"rate_limit_enabled"`
	RateLimitRequests int           `yaml:"rate_limit_requests"`
	RateLimitWindow   time.Duration `yaml:"rate_limit_window"`
	CORSAllowOrigins  []string      `yaml:"cors_allow_origins"`
	CORSAllowMethods  []string      `yaml:"cors_allow_methods"`
	CORSAllowHeaders  []string      `yaml:"cors_allow_headers"`
	TrustedProxies    []string      `yaml:"trusted_proxies"`
}

// JiraConfig holds issue tracker connection settings
type JiraConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Email             string        `yaml:"email"`
	APIToken          string        `yaml:"api_token"`
	DefaultProjectKey string        `yaml:"default_project_key"`
	DefaultIssueType  string        `yaml:"default_issue_type"`
	DefaultPriority   string        `yaml:"default_priority"`
	Timeout           time.Duration `yaml:"timeout"`
}

// PipedriveConfig holds CRM connection settings
type PipedriveConfig struct {
	BaseURL         string        `yaml:"base_url"`
	APIToken        string        `yaml:"api_token"`
	DefaultCurrency string        `yaml:"default_currency"`
	Timeout         time.Duration `yaml:"timeout"`
}

// SyncConfig holds reconciliation defaults
type SyncConfig struct {
	JQL              string `yaml:"jql"`
	DefaultValue     string `yaml:"default_value"`
	WonIssuePriority string `yaml:"won_issue_priority"`
	IssuePageSize    int    `yaml:"issue_page_size"`
	DealPageSize     int    `yaml:"deal_page_size"`
}

// WebhookConfig holds the opt-in webhook idempotency settings
type WebhookConfig struct {
	DedupEnabled bool          `yaml:"dedup_enabled"`
	DedupTTL     time.Duration `yaml:"dedup_ttl"`
	DedupStore   string        `yaml:"dedup_store"` // memory, redis
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Addr returns host:port
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool          `yaml:"enabled"`
	MetricsEnabled    bool          `yaml:"metrics_enabled"`
	CollectorEndpoint string        `yaml:"collector_endpoint"` // e.g. "localhost:4317"
	SamplingRatio     float64       `yaml:"sampling_ratio"`     // 0.0-1.0
	ServiceName       string        `yaml:"service_name"`
	Insecure          bool          `yaml:"insecure"` // development only
	ExportInterval    time.Duration `yaml:"export_interval"`
}

// conventional unprefixed environment names accepted for credentials
var envAliases = map[string][]string{
	"jira.base_url":       {"JIRA_BASE_URL", "JIRA_URL"},
	"jira.email":          {"JIRA_EMAIL"},
	"jira.api_token":      {"JIRA_API_TOKEN", "JIRA_TOKEN"},
	"pipedrive.base_url":  {"PIPEDRIVE_BASE_URL"},
	"pipedrive.api_token": {"PIPEDRIVE_API_TOKEN"},
	"app.api_key":         {"GATEWAY_API_KEY", "API_KEY"},
	"app.env":             {"APP_ENV"},
}

// Load loads configuration from the default locations.
// Priority (highest to lowest):
// 1. Environment variables with GATEWAY_ prefix, then the conventional names above
// 2. .env file in the working directory
// 3. config.toml / config.yaml
// 4. Built-in defaults
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load but reads the given config file when path is set
func LoadFile(path string) (*Config, error) {
	// .env never overrides variables that are already set
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/dealbridge")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, names := range envAliases {
		args := append([]string{key, EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("bind env for %s: %w", key, err)
		}
	}

	cfg := &Config{
		App: AppConfig{
			Name:    v.GetString("app.name"),
			Env:     v.GetString("app.env"),
			Version: v.GetString("app.version"),
			APIKey:  v.GetString("app.api_key"),
		},
		Log: LogConfig{
			Level:      v.GetString("log.level"),
			Format:     v.GetString("log.format"),
			Output:     v.GetString("log.output"),
			MaxSizeMB:  v.GetInt("log.max_size_mb"),
			MaxBackups: v.GetInt("log.max_backups"),
			MaxAgeDays: v.GetInt("log.max_age_days"),
		},
		HTTP: HTTPConfig{
			Port:              v.GetString("http.port"),
			ReadTimeout:       v.GetDuration("http.read_timeout"),
			WriteTimeout:      v.GetDuration("http.write_timeout"),
			IdleTimeout:       v.GetDuration("http.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("http.shutdown_timeout"),
			MaxHeaderBytes:    v.GetInt("http.max_header_bytes"),
			MaxBodySize:       v.GetInt64("http.max_body_size"),
			RateLimitEnabled:  v.GetBool("http.rate_limit_enabled"),
			RateLimitRequests: v.GetInt("http.rate_limit_requests"),
			RateLimitWindow:   v.GetDuration("http.rate_limit_window"),
			CORSAllowOrigins:  v.GetStringSlice("http.cors_allow_origins"),
			CORSAllowMethods:  v.GetStringSlice("http.cors_allow_methods"),
			CORSAllowHeaders:  v.GetStringSlice("http.cors_allow_headers"),
			TrustedProxies:    v.GetStringSlice("http.trusted_proxies"),
		},
		Jira: JiraConfig{
			BaseURL:           v.GetString("jira.base_url"),
			Email:             v.GetString("jira.email"),
			APIToken:          v.GetString("jira.api_token"),
			DefaultProjectKey: v.GetString("jira.default_project_key"),
			DefaultIssueType:  v.GetString("jira.default_issue_type"),
			DefaultPriority:   v.GetString("jira.default_priority"),
			Timeout:           v.GetDuration("jira.timeout"),
		},
		Pipedrive: PipedriveConfig{
			BaseURL:         v.GetString("pipedrive.base_url"),
			APIToken:        v.GetString("pipedrive.api_token"),
			DefaultCurrency: v.GetString("pipedrive.default_currency"),
			Timeout:         v.GetDuration("pipedrive.timeout"),
		},
		Sync: SyncConfig{
			JQL:              v.GetString("sync.jql"),
			DefaultValue:     v.GetString("sync.default_value"),
			WonIssuePriority: v.GetString("sync.won_issue_priority"),
			IssuePageSize:    v.GetInt("sync.issue_page_size"),
			DealPageSize:     v.GetInt("sync.deal_page_size"),
		},
		Webhook: WebhookConfig{
			DedupEnabled: v.GetBool("webhook.dedup_enabled"),
			DedupTTL:     v.GetDuration("webhook.dedup_ttl"),
			DedupStore:   v.GetString("webhook.dedup_store"),
		},
		Redis: RedisConfig{
			Host:      v.GetString("redis.host"),
			Port:      v.GetInt("redis.port"),
			Password:  v.GetString("redis.password"),
			DB:        v.GetInt("redis.db"),
			KeyPrefix: v.GetString("redis.key_prefix"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a configuration holding only built-in defaults
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "dealbridge-gateway"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
		if cfg.App.Env == "production" {
			cfg.Log.Format = "json"
		}
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = 100
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = 5
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = 30
	}
	if cfg.HTTP.Port == "" {
		cfg.HTTP.Port = "8080"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	// Sync passes make many sequential upstream calls
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 5 * time.Minute
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout == 0 {
		cfg.HTTP.ShutdownTimeout = 30 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxBodySize == 0 {
		cfg.HTTP.MaxBodySize = 2 << 20 // 2MB
	}
	if cfg.HTTP.RateLimitRequests == 0 {
		cfg.HTTP.RateLimitRequests = 100
	}
	if cfg.HTTP.RateLimitWindow == 0 {
		cfg.HTTP.RateLimitWindow = time.Minute
	}
	if len(cfg.HTTP.CORSAllowOrigins) == 0 {
		cfg.HTTP.CORSAllowOrigins = []string{"*"}
	}
	if len(cfg.HTTP.CORSAllowMethods) == 0 {
		cfg.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	}
	if len(cfg.HTTP.CORSAllowHeaders) == 0 {
		cfg.HTTP.CORSAllowHeaders = []string{"Content-Type", "X-API-Key", "X-Request-ID"}
	}
	if cfg.Jira.DefaultProjectKey == "" {
		cfg.Jira.DefaultProjectKey = "PROJ"
	}
	if cfg.Jira.DefaultIssueType == "" {
		cfg.Jira.DefaultIssueType = "Task"
	}
	if cfg.Jira.DefaultPriority == "" {
		cfg.Jira.DefaultPriority = "Medium"
	}
	if cfg.Jira.Timeout == 0 {
		cfg.Jira.Timeout = 30 * time.Second
	}
	if cfg.Pipedrive.BaseURL == "" {
		cfg.Pipedrive.BaseURL = "https://api.pipedrive.com/v1"
	}
	if cfg.Pipedrive.DefaultCurrency == "" {
		cfg.Pipedrive.DefaultCurrency = "USD"
	}
	if cfg.Pipedrive.Timeout == 0 {
		cfg.Pipedrive.Timeout = 30 * time.Second
	}
	if cfg.Sync.JQL == "" {
		cfg.Sync.JQL = "status = Done"
	}
	if cfg.Sync.DefaultValue == "" {
		cfg.Sync.DefaultValue = "0"
	}
	if cfg.Sync.WonIssuePriority == "" {
		cfg.Sync.WonIssuePriority = "High"
	}
	if cfg.Sync.IssuePageSize == 0 {
		cfg.Sync.IssuePageSize = 100
	}
	if cfg.Sync.DealPageSize == 0 {
		cfg.Sync.DealPageSize = 500
	}
	if cfg.Webhook.DedupTTL == 0 {
		cfg.Webhook.DedupTTL = 24 * time.Hour
	}
	if cfg.Webhook.DedupStore == "" {
		cfg.Webhook.DedupStore = "memory"
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "dealbridge:webhook:"
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if _, err := c.Sync.Value(); err != nil {
		return err
	}
	if c.Sync.IssuePageSize < 0 || c.Sync.DealPageSize < 0 {
		return fmt.Errorf("sync page sizes cannot be negative")
	}
	if c.Sync.DealPageSize > 500 {
		return fmt.Errorf("sync.deal_page_size cannot exceed 500, got %d", c.Sync.DealPageSize)
	}
	switch c.Webhook.DedupStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("webhook.dedup_store must be 'memory' or 'redis', got %q", c.Webhook.DedupStore)
	}
	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	if c.App.Env == "production" {
		required := map[string]string{
			"app.api_key":         c.App.APIKey,
			"jira.base_url":       c.Jira.BaseURL,
			"jira.email":          c.Jira.Email,
			"jira.api_token":      c.Jira.APIToken,
			"pipedrive.api_token": c.Pipedrive.APIToken,
		}
		for _, key := range []string{"app.api_key", "jira.base_url", "jira.email", "jira.api_token", "pipedrive.api_token"} {
			if required[key] == "" {
				return fmt.Errorf("%s is required in production", key)
			}
		}
		if len(c.App.APIKey) < 16 {
			return fmt.Errorf("app.api_key must be at least 16 characters in production")
		}
		if !strings.HasPrefix(c.Jira.BaseURL, "https://") {
			return fmt.Errorf("jira.base_url must use https in production")
		}
	}

	return nil
}

// Value parses the default deal value
func (s SyncConfig) Value() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s.DefaultValue)
	if err != nil {
		return decimal.Zero, fmt.Errorf("sync.default_value %q is not a decimal: %w", s.DefaultValue, err)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("sync.default_value cannot be negative")
	}
	return d, nil
}

// IsProduction reports whether the app runs in production
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Redacted returns a copy with secrets masked, for display
func (c *Config) Redacted() Config {
	r := *c
	r.App.APIKey = mask(r.App.APIKey)
	r.Jira.APIToken = mask(r.Jira.APIToken)
	r.Pipedrive.APIToken = mask(r.Pipedrive.APIToken)
	r.Redis.Password = mask(r.Redis.Password)
	return r
}

func mask(secret string) string {
	switch {
	case secret == "":
		return ""
	case len(secret) <= 8:
		return "****"
	default:
		return secret[:4] + "****"
	}
}
