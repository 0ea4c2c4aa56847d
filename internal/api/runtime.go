package api

import (
	"github.com/JaimeStill/churnstudio/internal/config"
	"github.com/JaimeStill/churnstudio/internal/infrastructure"
	"github.com/JaimeStill/churnstudio/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
	Dashboard  config.DashboardConfig
	Client     config.ClientConfig
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle: infra.Lifecycle,
			Logger:    infra.Logger.With("module", "api"),
			Registry:  infra.Registry,
			Tracing:   infra.Tracing,
			Churn:     infra.Churn,
		},
		Pagination: cfg.API.Pagination,
		Dashboard:  cfg.Dashboard,
		Client:     cfg.Client,
	}
}
