package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	EnvDashboardBasePath      = "CHURNSTUDIO_DASHBOARD_BASE_PATH"
	EnvDashboardCookieName    = "CHURNSTUDIO_DASHBOARD_COOKIE_NAME"
	EnvDashboardSessionTTL    = "CHURNSTUDIO_DASHBOARD_SESSION_TTL"
	EnvDashboardSweepInterval = "CHURNSTUDIO_DASHBOARD_SWEEP_INTERVAL"
)

// DashboardConfig holds the web dashboard and session settings.
type DashboardConfig struct {
	BasePath      string `toml:"base_path"`
	CookieName    string `toml:"cookie_name"`
	SessionTTL    string `toml:"session_ttl"`
	SweepInterval string `toml:"sweep_interval"`
}

// SessionTTLDuration returns SessionTTL as a time.Duration.
func (c *DashboardConfig) SessionTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.SessionTTL)
	return d
}

// SweepIntervalDuration returns SweepInterval as a time.Duration.
func (c *DashboardConfig) SweepIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.SweepInterval)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *DashboardConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *DashboardConfig) Merge(overlay *DashboardConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.CookieName != "" {
		c.CookieName = overlay.CookieName
	}
	if overlay.SessionTTL != "" {
		c.SessionTTL = overlay.SessionTTL
	}
	if overlay.SweepInterval != "" {
		c.SweepInterval = overlay.SweepInterval
	}
}

func (c *DashboardConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/app"
	}
	if c.CookieName == "" {
		c.CookieName = "churnstudio_session"
	}
	if c.SessionTTL == "" {
		c.SessionTTL = "30m"
	}
	if c.SweepInterval == "" {
		c.SweepInterval = "1m"
	}
}

func (c *DashboardConfig) loadEnv() {
	if v := os.Getenv(EnvDashboardBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvDashboardCookieName); v != "" {
		c.CookieName = v
	}
	if v := os.Getenv(EnvDashboardSessionTTL); v != "" {
		c.SessionTTL = v
	}
	if v := os.Getenv(EnvDashboardSweepInterval); v != "" {
		c.SweepInterval = v
	}
}

func (c *DashboardConfig) validate() error {
	if !strings.HasPrefix(c.BasePath, "/") || strings.Count(c.BasePath, "/") != 1 {
		return fmt.Errorf("base_path must be a single-level path: %q", c.BasePath)
	}
	if d, err := time.ParseDuration(c.SessionTTL); err != nil || d <= 0 {
		return fmt.Errorf("invalid session_ttl: %q", c.SessionTTL)
	}
	if d, err := time.ParseDuration(c.SweepInterval); err != nil || d <= 0 {
		return fmt.Errorf("invalid sweep_interval: %q", c.SweepInterval)
	}
	return nil
}
