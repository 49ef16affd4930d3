// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// FunnelConfig provides settings for the funnel session service.
type FunnelConfig interface {
	GetProcessingDelay() time.Duration
	GetRedirectURL() string
	GetAppBaseURL() string
	GetFunnelContentPath() string
}

// DispatchConfig provides settings for the outbound lead webhook.
type DispatchConfig interface {
	GetWebhookURL() string
	GetWebhookTimeout() time.Duration
}

// SessionStoreConfig provides settings for the session store.
type SessionStoreConfig interface {
	GetRedisURL() string
	GetSessionTTL() time.Duration
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env               string
	HTTPAddr          string
	CORSAllowAll      bool
	CORSOrigins       []string
	CORSAllowCreds    bool
	AppBaseURL        string
	WebhookURL        string
	WebhookTimeout    time.Duration
	RedirectURL       string
	ProcessingDelay   time.Duration
	SessionTTL        time.Duration
	RedisURL          string
	FunnelContentPath string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// FunnelConfig implementation
func (c *Config) GetProcessingDelay() time.Duration { return c.ProcessingDelay }
func (c *Config) GetRedirectURL() string            { return c.RedirectURL }
func (c *Config) GetAppBaseURL() string             { return c.AppBaseURL }
func (c *Config) GetFunnelContentPath() string      { return c.FunnelContentPath }

// DispatchConfig implementation
func (c *Config) GetWebhookURL() string            { return c.WebhookURL }
func (c *Config) GetWebhookTimeout() time.Duration { return c.WebhookTimeout }

// SessionStoreConfig implementation
func (c *Config) GetRedisURL() string          { return c.RedisURL }
func (c *Config) GetSessionTTL() time.Duration { return c.SessionTTL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:               getEnv("APP_ENV", "development"),
		HTTPAddr:          getEnv("HTTP_ADDR", ":8080"),
		CORSAllowAll:      corsAllowAll,
		CORSOrigins:       corsOrigins,
		CORSAllowCreds:    strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "false"), "true"),
		AppBaseURL:        getEnv("APP_BASE_URL", "http://localhost:8080"),
		WebhookURL:        getEnv("WEBHOOK_URL", ""),
		WebhookTimeout:    mustDuration(getEnv("WEBHOOK_TIMEOUT", "10s")),
		RedirectURL:       getEnv("REDIRECT_URL", ""),
		ProcessingDelay:   mustDuration(getEnv("PROCESSING_DELAY", "3s")),
		SessionTTL:        mustDuration(getEnv("SESSION_TTL", "30m")),
		RedisURL:          getEnv("REDIS_URL", ""),
		FunnelContentPath: getEnv("FUNNEL_CONTENT_PATH", ""),
	}

	if cfg.WebhookURL == "" {
		return nil, fmt.Errorf("WEBHOOK_URL is required")
	}
	if cfg.RedirectURL == "" {
		return nil, fmt.Errorf("REDIRECT_URL is required")
	}
	if cfg.ProcessingDelay <= 0 {
		return nil, fmt.Errorf("PROCESSING_DELAY must be a positive duration")
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("SESSION_TTL must be a positive duration")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
