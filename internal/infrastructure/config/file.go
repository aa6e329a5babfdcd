package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file written by gatewayctl config init
const DefaultFileName = "config.yaml"

// Credentials are the secrets and endpoints gatewayctl config init collects
type Credentials struct {
	APIKey            string
	JiraBaseURL       string
	JiraEmail         string
	JiraAPIToken      string
	JiraProjectKey    string
	PipedriveAPIToken string
}

// credentialsFile mirrors the config file layout for the sections Credentials touches
type credentialsFile struct {
	App struct {
		APIKey string `yaml:"api_key,omitempty"`
	} `yaml:"app"`
	Jira struct {
		BaseURL           string `yaml:"base_url,omitempty"`
		Email             string `yaml:"email,omitempty"`
		APIToken          string `yaml:"api_token,omitempty"`
		DefaultProjectKey string `yaml:"default_project_key,omitempty"`
	} `yaml:"jira"`
	Pipedrive struct {
		APIToken string `yaml:"api_token,omitempty"`
	} `yaml:"pipedrive"`
}

// CredentialsFrom extracts the Credentials of a loaded configuration
func CredentialsFrom(cfg *Config) Credentials {
	return Credentials{
		APIKey:            cfg.App.APIKey,
		JiraBaseURL:       cfg.Jira.BaseURL,
		JiraEmail:         cfg.Jira.Email,
		JiraAPIToken:      cfg.Jira.APIToken,
		JiraProjectKey:    cfg.Jira.DefaultProjectKey,
		PipedriveAPIToken: cfg.Pipedrive.APIToken,
	}
}

// SaveCredentials writes creds as a YAML config file readable by LoadFile.
// The file holds secrets and is created with mode 0600.
func SaveCredentials(path string, creds Credentials) error {
	if path == "" {
		path = DefaultFileName
	}

	var f credentialsFile
	f.App.APIKey = creds.APIKey
	f.Jira.BaseURL = creds.JiraBaseURL
	f.Jira.Email = creds.JiraEmail
	f.Jira.APIToken = creds.JiraAPIToken
	f.Jira.DefaultProjectKey = creds.JiraProjectKey
	f.Pipedrive.APIToken = creds.PipedriveAPIToken

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// DisplayYAML renders the configuration as YAML with durations in their string
// form ("30s") so the output can be pasted back into a config file.
// Call it on Redacted() when secrets must not be shown.
func (c Config) DisplayYAML() ([]byte, error) {
	return yaml.Marshal(displayValue(reflect.ValueOf(c)))
}

var durationType = reflect.TypeOf(time.Duration(0))

func displayValue(v reflect.Value) any {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}
	if v.Kind() != reflect.Struct {
		return v.Interface()
	}

	out := &yaml.Node{Kind: yaml.MappingNode}
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name == "" || name == "-" {
			continue
		}
		var value yaml.Node
		if err := value.Encode(displayValue(v.Field(i))); err != nil {
			continue
		}
		out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: name}, &value)
	}
	return out
}
