package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/churnstudio/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[api]
base_path = "/api"
max_upload_size = "10MB"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50

[client]
default_base_url = "http://localhost:8000"
health_timeout = "5s"
status_window = "3s"
max_in_flight = 8

[dashboard]
base_path = "/app"
session_ttl = "30m"
sweep_interval = "1m"

[tracing]
enabled = false
`

const overlayConfig = `
[server]
port = 9090

[client]
default_base_url = "https://churn.internal"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadBase(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadBase(t)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.API.Pagination.MaxPageSize != 50 {
		t.Errorf("pagination max_page_size: got %d, want 50", cfg.API.Pagination.MaxPageSize)
	}
	if cfg.Client.MaxInFlight != 8 {
		t.Errorf("client max_in_flight: got %d, want 8", cfg.Client.MaxInFlight)
	}
	if cfg.Client.HealthTimeoutDuration() != 5*time.Second {
		t.Errorf("health timeout: got %v, want 5s", cfg.Client.HealthTimeoutDuration())
	}
	if cfg.Client.StatusWindowDuration() != 3*time.Second {
		t.Errorf("status window: got %v, want 3s", cfg.Client.StatusWindowDuration())
	}
	if cfg.Dashboard.SessionTTLDuration() != 30*time.Minute {
		t.Errorf("session ttl: got %v, want 30m", cfg.Dashboard.SessionTTLDuration())
	}
	if cfg.Dashboard.CookieName != "churnstudio_session" {
		t.Errorf("cookie name: got %s", cfg.Dashboard.CookieName)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv(config.EnvChurnStudioEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Client.DefaultBaseURL != "https://churn.internal" {
		t.Errorf("default base url: got %s (from overlay)", cfg.Client.DefaultBaseURL)
	}
	if cfg.Client.MaxInFlight != 8 {
		t.Errorf("max in flight: got %d, want 8 (from base)", cfg.Client.MaxInFlight)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv(config.EnvChurnStudioVersion, "2.0.0")
	t.Setenv(config.EnvServerPort, "3000")
	t.Setenv(config.EnvClientHealthTimeout, "2s")
	t.Setenv(config.EnvDashboardSessionTTL, "5m")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Client.HealthTimeoutDuration() != 2*time.Second {
		t.Errorf("health timeout: got %v, want 2s", cfg.Client.HealthTimeoutDuration())
	}
	if cfg.Dashboard.SessionTTLDuration() != 5*time.Minute {
		t.Errorf("session ttl: got %v, want 5m", cfg.Dashboard.SessionTTLDuration())
	}
}

func TestLoadDotEnv(t *testing.T) {
	const key = "CHURNSTUDIO_CLIENT_STATUS_WINDOW"
	if _, set := os.LookupEnv(key); set {
		t.Skipf("%s already set in the environment", key)
	}
	t.Cleanup(func() { os.Unsetenv(key) })

	dir := t.TempDir()
	writeConfig(t, dir, ".env", key+"=7s\n")
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Client.StatusWindowDuration() != 7*time.Second {
		t.Errorf("status window: got %v, want 7s from .env", cfg.Client.StatusWindowDuration())
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Client.DefaultBaseURL != "http://localhost:8000" {
		t.Errorf("default base url: got %s", cfg.Client.DefaultBaseURL)
	}
	if cfg.Client.MaxInFlight != 16 {
		t.Errorf("max in flight default: got %d, want 16", cfg.Client.MaxInFlight)
	}
	if cfg.Dashboard.BasePath != "/app" {
		t.Errorf("dashboard base path: got %s, want /app", cfg.Dashboard.BasePath)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should be disabled by default")
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `server = { port = `)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnv(t *testing.T) {
	cfg := loadBase(t)
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}

	t.Setenv(config.EnvChurnStudioEnv, "production")
	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestDurationsAndAddr(t *testing.T) {
	cfg := loadBase(t)

	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if d := cfg.Server.HeaderTimeoutDuration(); d != 10*time.Second {
		t.Errorf("header timeout: got %v, want 10s", d)
	}

	v6 := config.ServerConfig{Host: "::1", Port: 9000}
	if addr := v6.Addr(); addr != "[::1]:9000" {
		t.Errorf("ipv6 addr: got %s, want [::1]:9000", addr)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 10MB", "10MB", 10 * 1024 * 1024},
		{"valid 1GB", "1GB", 1024 * 1024 * 1024},
		{"invalid falls back to 10MB", "bad", 10 * 1024 * 1024},
		{"empty falls back to 10MB", "", 10 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"invalid port", "[server]\nport = 99999\n", "invalid port"},
		{"invalid read_timeout", "[server]\nread_timeout = \"bad\"\n", "invalid read_timeout"},
		{"negative write_timeout", "[server]\nwrite_timeout = \"-1m\"\n", "invalid write_timeout"},
		{"invalid shutdown_timeout", "shutdown_timeout = \"soon\"\n", "invalid shutdown_timeout"},
		{"invalid upload size", "[api]\nmax_upload_size = \"lots\"\n", "invalid max_upload_size"},
		{"invalid base url", "[client]\ndefault_base_url = \"localhost\"\n", "invalid default_base_url"},
		{"invalid health timeout", "[client]\nhealth_timeout = \"-1s\"\n", "invalid health_timeout"},
		{"invalid session ttl", "[dashboard]\nsession_ttl = \"forever\"\n", "invalid session_ttl"},
		{"multi-level dashboard path", "[dashboard]\nbase_path = \"/a/b\"\n", "single-level"},
		{"shared base path", "[dashboard]\nbase_path = \"/api\"\n", "cannot share base path"},
		{"invalid sample ratio", "[tracing]\nsample_ratio = 2.0\n", "sample_ratio"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}
