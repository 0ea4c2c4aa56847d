// Package infrastructure provides core service initialization for application startup.
// It assembles common dependencies (logging, metrics, tracing, the churn backend client)
// that domain systems require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/internal/config"
	"github.com/JaimeStill/churnstudio/pkg/lifecycle"
	"github.com/JaimeStill/churnstudio/pkg/tracing"
)

// Infrastructure holds the core systems required by all domain modules.
// It provides a single point of initialization for lifecycle coordination,
// logging, metrics, tracing, and backend access.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Tracing   *tracing.Provider
	Churn     *churn.Client
}

// New creates an Infrastructure from the application configuration.
// It initializes all systems but does not start them; call Start separately.
func New(cfg *config.Config) (*Infrastructure, error) {
	lc := lifecycle.New()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tp, err := tracing.New(context.Background(), &cfg.Tracing, cfg.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	client := churn.New(churn.Options{
		HTTPClient:    &http.Client{Transport: tracing.Transport(nil)},
		HealthTimeout: cfg.Client.HealthTimeoutDuration(),
		MaxInFlight:   cfg.Client.MaxInFlight,
		Metrics:       churn.NewMetrics(registry),
	}, logger)

	return &Infrastructure{
		Lifecycle: lc,
		Logger:    logger,
		Registry:  registry,
		Tracing:   tp,
		Churn:     client,
	}, nil
}

// Start registers all infrastructure systems with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	if err := i.Tracing.Start(i.Lifecycle); err != nil {
		return fmt.Errorf("tracing start failed: %w", err)
	}
	return nil
}
