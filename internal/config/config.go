package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type Config struct {
	// Database
	DBPath string

	// Account
	UserID string

	// Sync endpoint
	SyncBaseURL  string
	SyncToken    string
	SyncInterval time.Duration

	// Exchange rates
	RateAPIBaseURL string
	RateCacheTTL   time.Duration

	// Display defaults
	DisplayCurrency string
	RateType        string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	GoogleOAuthClientJSON string
	GoogleOAuthTokenJSON  string

	// Repository selection: "local" (embedded SQLite with sync) or
	// "remote" (server-backed REST, no offline state)
	DataBackend string
}

func Load() *Config {
	cfg := &Config{
		DBPath: getEnv("FINTRACK_DB_PATH", "./data/fintrack.db"),

		UserID: getEnv("FINTRACK_USER_ID", ""),

		SyncBaseURL:  getEnv("SYNC_BASE_URL", ""),
		SyncToken:    getEnv("SYNC_TOKEN", ""),
		SyncInterval: getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		RateAPIBaseURL: getEnv("RATE_API_BASE_URL", "https://dolarapi.com"),
		RateCacheTTL:   getEnvDuration("RATE_CACHE_TTL", 5*time.Minute),

		DisplayCurrency: getEnv("DISPLAY_CURRENCY", "ars"),
		RateType:        getEnv("RATE_TYPE", "blue"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "fintrack"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "sync_requests"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", ""),
		GoogleOAuthClientFile: getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:  getEnv("GOOGLE_OAUTH_TOKEN_FILE", ""),
		GoogleOAuthClientJSON: getEnv("GOOGLE_OAUTH_CLIENT_JSON", ""),
		GoogleOAuthTokenJSON:  getEnv("GOOGLE_OAUTH_TOKEN_JSON", ""),

		DataBackend: getEnv("DATA_BACKEND", "local"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate data backend
	validBackends := []string{"local", "remote"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite path if backend is local
	if c.DataBackend == "local" {
		if c.DBPath == "" {
			errors = append(errors, "database path cannot be empty when using the local backend")
		} else {
			dir := filepath.Dir(c.DBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// The remote backend serves reads and writes over REST; it needs a base URL
	if c.DataBackend == "remote" && c.SyncBaseURL == "" {
		errors = append(errors, "SYNC_BASE_URL is required when using the remote backend")
	}

	// Validate sync endpoint if provided
	if c.SyncBaseURL != "" {
		if parsedURL, err := url.Parse(c.SyncBaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid sync base URL '%s': %v", c.SyncBaseURL, err))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid sync base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
		if c.UserID == "" {
			errors = append(errors, "FINTRACK_USER_ID is required when a sync endpoint is configured")
		}
	}

	// Validate rate API base URL
	if c.RateAPIBaseURL == "" {
		errors = append(errors, "rate API base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.RateAPIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid rate API base URL '%s': %v", c.RateAPIBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid rate API base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	// Validate display defaults
	if c.DisplayCurrency != "ars" && c.DisplayCurrency != "usd" {
		errors = append(errors, fmt.Sprintf("invalid display currency '%s': must be 'ars' or 'usd'", c.DisplayCurrency))
	}
	if c.RateType != "blue" && c.RateType != "official" {
		errors = append(errors, fmt.Sprintf("invalid rate type '%s': must be 'blue' or 'official'", c.RateType))
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets export configuration if a spreadsheet is set
	if c.GoogleSpreadsheetID != "" {
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google sheet name is required when a spreadsheet ID is set")
		}

		hasClientFile := c.GoogleOAuthClientFile != ""
		hasClientJSON := c.GoogleOAuthClientJSON != ""
		if !hasClientFile && !hasClientJSON {
			errors = append(errors, "either GOOGLE_OAUTH_CLIENT_FILE or GOOGLE_OAUTH_CLIENT_JSON must be provided for the Sheets export")
		}

		hasTokenFile := c.GoogleOAuthTokenFile != ""
		hasTokenJSON := c.GoogleOAuthTokenJSON != ""
		if !hasTokenFile && !hasTokenJSON {
			errors = append(errors, "either GOOGLE_OAUTH_TOKEN_FILE or GOOGLE_OAUTH_TOKEN_JSON must be provided for the Sheets export")
		}

		if hasClientFile {
			if _, err := os.Stat(c.GoogleOAuthClientFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google OAuth client file does not exist: %s", c.GoogleOAuthClientFile))
			}
		}
		if hasTokenFile {
			if _, err := os.Stat(c.GoogleOAuthTokenFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google OAuth token file does not exist: %s", c.GoogleOAuthTokenFile))
			}
		}
	}

	// Validate intervals
	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	if c.RateCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid rate cache TTL %v: must be at least 1 second", c.RateCacheTTL))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
