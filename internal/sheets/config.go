// Package sheets reads dashboard data from Google Sheets and exports
// reports back to it.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Veraticus/sheetboard/internal/service"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// AuthMethod identifies how requests to the Sheets API are authorized.
type AuthMethod string

// Supported authentication methods.
const (
	AuthNone           AuthMethod = "none"
	AuthAPIKey         AuthMethod = "api_key"
	AuthServiceAccount AuthMethod = "service_account"
	AuthOAuth          AuthMethod = "oauth"
)

// ErrReadOnlyAuth is returned when an export is attempted with an API key.
var ErrReadOnlyAuth = errors.New("api keys can only read public sheets; configure a service account or OAuth2 to export")

// Config holds the Google Sheets connection settings.
type Config struct {
	APIKey              string
	ClientID            string
	ClientSecret        string
	RefreshToken        string
	ServiceAccountPath  string
	ExportSpreadsheetID string
	ExportTitle         string
	TimeZone            string
	BatchSize           int
	RetryAttempts       int
	RetryDelay          time.Duration
	MaxRetryDelay       time.Duration
	Timeout             time.Duration
	EnableFormatting    bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		ExportTitle:      "Sheetboard Reports",
		TimeZone:         "America/Sao_Paulo",
		BatchSize:        500,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
		MaxRetryDelay:    30 * time.Second,
		Timeout:          30 * time.Second,
	}
}

// LoadFromEnv fills empty credentials from the GOOGLE_SHEETS_* variables.
func (c *Config) LoadFromEnv() {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = os.Getenv(key)
		}
	}
	fill(&c.APIKey, "GOOGLE_SHEETS_API_KEY")
	fill(&c.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	fill(&c.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	fill(&c.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	fill(&c.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	fill(&c.ExportSpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")
}

// Method reports the configured authentication method. Credentials are
// checked in order of privilege: service account, OAuth2, API key.
func (c *Config) Method() AuthMethod {
	switch {
	case c.ServiceAccountPath != "":
		return AuthServiceAccount
	case c.hasOAuth():
		return AuthOAuth
	case c.APIKey != "":
		return AuthAPIKey
	default:
		return AuthNone
	}
}

func (c *Config) hasOAuth() bool {
	return c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	methods := 0
	if c.APIKey != "" {
		methods++
	}
	if c.ServiceAccountPath != "" {
		methods++
	}
	if c.hasOAuth() {
		methods++
	}

	if methods == 0 {
		return fmt.Errorf("no authentication method configured")
	}
	if methods > 1 {
		return fmt.Errorf("multiple authentication methods configured; use exactly one of api key, service account or OAuth2")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout cannot be negative")
	}

	return nil
}

// RetryOptions returns the retry policy for API calls.
func (c *Config) RetryOptions() service.RetryOptions {
	return service.RetryOptions{
		MaxAttempts:  c.RetryAttempts,
		InitialDelay: c.RetryDelay,
		MaxDelay:     c.MaxRetryDelay,
		Multiplier:   2.0,
	}
}

// clientOptions builds the API client options for the configured
// credentials. scope only applies to service accounts and OAuth2.
func (c *Config) clientOptions(ctx context.Context, scope string) ([]option.ClientOption, error) {
	switch c.Method() {
	case AuthAPIKey:
		return []option.ClientOption{option.WithAPIKey(c.APIKey)}, nil

	case AuthServiceAccount:
		jsonKey, err := os.ReadFile(c.ServiceAccountPath)
		if err != nil {
			return nil, fmt.Errorf("unable to read service account key file: %w", err)
		}
		jwtConfig, err := google.JWTConfigFromJSON(jsonKey, scope)
		if err != nil {
			return nil, fmt.Errorf("unable to parse service account key: %w", err)
		}
		return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, jwtConfig.TokenSource(ctx)))}, nil

	case AuthOAuth:
		oauthConfig := &oauth2.Config{
			ClientID:     c.ClientID,
			ClientSecret: c.ClientSecret,
			Endpoint:     google.Endpoint,
			Scopes:       []string{scope},
		}
		token := &oauth2.Token{RefreshToken: c.RefreshToken, TokenType: "Bearer"}
		return []option.ClientOption{option.WithHTTPClient(oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, token)))}, nil

	default:
		return nil, fmt.Errorf("no authentication method configured")
	}
}

func newService(ctx context.Context, c Config, scope string, extra []option.ClientOption) (*sheets.Service, error) {
	opts, err := c.clientOptions(ctx, scope)
	if err != nil {
		return nil, err
	}
	srv, err := sheets.NewService(ctx, append(opts, extra...)...)
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}
	return srv, nil
}
