package fiken

import "errors"

// Config holds configuration for the Fiken API integration
type Config struct {
	// ClientID is the OAuth client id issued by Fiken.
	ClientID string
	// ClientSecret is the OAuth client secret.
	ClientSecret string
	// BaseURL hosts the OAuth endpoints.
	BaseURL string
	// APIBaseURL hosts the REST API.
	APIBaseURL string
	// TimeoutSeconds is the HTTP request timeout.
	TimeoutSeconds int
}

const (
	// ProductionBaseURL is the production OAuth endpoint host
	ProductionBaseURL = "https://fiken.no"
	// ProductionAPIBaseURL is the production REST API endpoint
	ProductionAPIBaseURL = "https://api.fiken.no/api/v2"
)

// Errors for Fiken configuration
var (
	ErrConfigMissingClientID     = errors.New("fiken: client id is required")
	ErrConfigMissingClientSecret = errors.New("fiken: client secret is required")
)

// NewConfig creates a new Fiken configuration with production defaults
func NewConfig(clientID, clientSecret string) *Config {
	return &Config{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		BaseURL:        ProductionBaseURL,
		APIBaseURL:     ProductionAPIBaseURL,
		TimeoutSeconds: 30,
	}
}

// Validate validates the Fiken configuration
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.BaseURL == "" {
		c.BaseURL = ProductionBaseURL
	}
	if c.APIBaseURL == "" {
		c.APIBaseURL = ProductionAPIBaseURL
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
