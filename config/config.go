// Package config loads the storefront auth server configuration from the
// environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the storefront auth server configuration.
type Config struct {
	// Listen address
	Addr string `env:"STOREAUTH_ADDR" envDefault:":8080"`

	// Public URL of the storefront. Redirects that leave it are refused.
	BaseURL string `env:"STOREAUTH_BASE_URL" envDefault:"http://localhost:8080"`

	// Prefix of the auth endpoints
	BasePath string `env:"STOREAUTH_BASE_PATH" envDefault:"/api/auth"`

	// Store backend REST API serving settings and customers
	BackendURL string `env:"STOREAUTH_BACKEND_URL" envDefault:"http://localhost:5055/v1"`

	Secret       string `env:"AUTH_SECRET"`
	LegacySecret string `env:"NEXTAUTH_SECRET"`

	SettingsTTL     time.Duration `env:"STOREAUTH_SETTINGS_TTL" envDefault:"4m"`
	SettingsRetries int           `env:"STOREAUTH_SETTINGS_RETRIES" envDefault:"1"`
	BackendTimeout  time.Duration `env:"STOREAUTH_BACKEND_TIMEOUT" envDefault:"10s"`
	SessionMaxAge   time.Duration `env:"STOREAUTH_SESSION_MAX_AGE" envDefault:"720h"`

	// debug, info, warn or error
	LogLevel string `env:"STOREAUTH_LOG_LEVEL" envDefault:"info"`
}

// Load parses the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.EnsureDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureDefaults fills in values the environment left unusable.
func (c *Config) EnsureDefaults() {
	c.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.BaseURL), "/")
	c.Secret = strings.TrimSpace(c.Secret)
	if c.Secret == "" {
		c.Secret = strings.TrimSpace(c.LegacySecret)
	}
	if c.SettingsRetries < 0 {
		c.SettingsRetries = 0
	}
	if c.SessionMaxAge <= 0 {
		c.SessionMaxAge = 30 * 24 * time.Hour
	}
}

// Validate reports missing required settings.
func (c *Config) Validate() error {
	if c.Secret == "" {
		return fmt.Errorf("AUTH_SECRET or NEXTAUTH_SECRET must be set")
	}
	if c.BackendURL == "" {
		return fmt.Errorf("STOREAUTH_BACKEND_URL must be set")
	}
	return nil
}
