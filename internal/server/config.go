package server

import (
	"time"

	"github.com/agentstation/featurereg/internal/server/cache"
	"github.com/agentstation/featurereg/pkg/errors"
)

// Config holds server configuration.
type Config struct {
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	PathPrefix string `mapstructure:"path_prefix"`

	CORSEnabled bool     `mapstructure:"cors_enabled"`
	CORSOrigins []string `mapstructure:"cors_origins"`

	AuthEnabled bool   `mapstructure:"auth_enabled"`
	AuthHeader  string `mapstructure:"auth_header"`
	APIKey      string `mapstructure:"api_key"`

	// ReviewerHeader names the header that identifies the acting reviewer.
	ReviewerHeader string `mapstructure:"reviewer_header"`

	RateLimit int          `mapstructure:"rate_limit"` // requests per minute per IP, 0 disables
	Cache     cache.Config `mapstructure:"cache"`

	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`

	MetricsEnabled bool `mapstructure:"metrics_enabled"`
	EventBuffer    int  `mapstructure:"event_buffer"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           8080,
		PathPrefix:     "/api/v1",
		CORSOrigins:    []string{},
		AuthHeader:     "X-API-Key",
		ReviewerHeader: "X-Reviewer",
		RateLimit:      100,
		Cache:          cache.DefaultConfig(),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MetricsEnabled: true,
		EventBuffer:    256,
	}
}

// Validate checks the settings New depends on.
func (c Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return errors.NewValidationError("port", c.Port, "must be between 0 and 65535")
	}
	if c.AuthEnabled && c.APIKey == "" {
		return errors.NewValidationError("api_key", "", "required when auth is enabled")
	}
	if c.RateLimit < 0 {
		return errors.NewValidationError("rate_limit", c.RateLimit, "must not be negative")
	}
	if c.ReviewerHeader == "" {
		return errors.NewValidationError("reviewer_header", "", "must not be empty")
	}
	return nil
}
