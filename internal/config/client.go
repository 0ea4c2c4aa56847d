package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	EnvClientDefaultBaseURL = "CHURNSTUDIO_CLIENT_DEFAULT_BASE_URL"
	EnvClientHealthTimeout  = "CHURNSTUDIO_CLIENT_HEALTH_TIMEOUT"
	EnvClientStatusWindow   = "CHURNSTUDIO_CLIENT_STATUS_WINDOW"
	EnvClientMaxInFlight    = "CHURNSTUDIO_CLIENT_MAX_IN_FLIGHT"
)

// ClientConfig holds settings for calls to the churn prediction backend.
type ClientConfig struct {
	DefaultBaseURL string `toml:"default_base_url"`
	HealthTimeout  string `toml:"health_timeout"`
	StatusWindow   string `toml:"status_window"`
	MaxInFlight    int64  `toml:"max_in_flight"`
}

// HealthTimeoutDuration returns HealthTimeout as a time.Duration.
func (c *ClientConfig) HealthTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.HealthTimeout)
	return d
}

// StatusWindowDuration returns StatusWindow as a time.Duration.
func (c *ClientConfig) StatusWindowDuration() time.Duration {
	d, _ := time.ParseDuration(c.StatusWindow)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClientConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClientConfig) Merge(overlay *ClientConfig) {
	if overlay.DefaultBaseURL != "" {
		c.DefaultBaseURL = overlay.DefaultBaseURL
	}
	if overlay.HealthTimeout != "" {
		c.HealthTimeout = overlay.HealthTimeout
	}
	if overlay.StatusWindow != "" {
		c.StatusWindow = overlay.StatusWindow
	}
	if overlay.MaxInFlight != 0 {
		c.MaxInFlight = overlay.MaxInFlight
	}
}

func (c *ClientConfig) loadDefaults() {
	if c.DefaultBaseURL == "" {
		c.DefaultBaseURL = "http://localhost:8000"
	}
	if c.HealthTimeout == "" {
		c.HealthTimeout = "5s"
	}
	if c.StatusWindow == "" {
		c.StatusWindow = "3s"
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = 16
	}
}

func (c *ClientConfig) loadEnv() {
	if v := os.Getenv(EnvClientDefaultBaseURL); v != "" {
		c.DefaultBaseURL = v
	}
	if v := os.Getenv(EnvClientHealthTimeout); v != "" {
		c.HealthTimeout = v
	}
	if v := os.Getenv(EnvClientStatusWindow); v != "" {
		c.StatusWindow = v
	}
	if v := os.Getenv(EnvClientMaxInFlight); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.MaxInFlight = n
		}
	}
}

func (c *ClientConfig) validate() error {
	if err := validator.New().Var(c.DefaultBaseURL, "required,http_url"); err != nil {
		return fmt.Errorf("invalid default_base_url %q", c.DefaultBaseURL)
	}
	if d, err := time.ParseDuration(c.HealthTimeout); err != nil || d <= 0 {
		return fmt.Errorf("invalid health_timeout: %q", c.HealthTimeout)
	}
	if d, err := time.ParseDuration(c.StatusWindow); err != nil || d <= 0 {
		return fmt.Errorf("invalid status_window: %q", c.StatusWindow)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("max_in_flight must be positive")
	}
	return nil
}
