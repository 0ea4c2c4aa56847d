// Package api assembles the API module with the dashboard system and route registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/churnstudio/internal/config"
	"github.com/JaimeStill/churnstudio/pkg/middleware"
	"github.com/JaimeStill/churnstudio/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, runtime *Runtime, domain *Domain) (*module.Module, error) {
	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
