package main

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JaimeStill/churnstudio/internal/api"
	"github.com/JaimeStill/churnstudio/internal/config"
	"github.com/JaimeStill/churnstudio/internal/infrastructure"
	"github.com/JaimeStill/churnstudio/pkg/middleware"
	"github.com/JaimeStill/churnstudio/pkg/module"
	"github.com/JaimeStill/churnstudio/web/app"
)

type Modules struct {
	Domain *api.Domain
	API    *module.Module
	App    *module.Module
}

func NewModules(infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	apiModule, err := api.NewModule(cfg, runtime, domain)
	if err != nil {
		return nil, err
	}

	appModule, err := app.NewModule(app.Config{
		BasePath:      cfg.Dashboard.BasePath,
		MaxUploadSize: cfg.API.MaxUploadSizeBytes(),
		Pagination:    cfg.API.Pagination,
	}, domain.Dashboard, infra.Logger)
	if err != nil {
		return nil, err
	}
	appModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		Domain: domain,
		API:    apiModule,
		App:    appModule,
	}, nil
}

func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.App)
}

func buildRouter(infra *infrastructure.Infrastructure, cfg *config.Config) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, cfg.Dashboard.BasePath+"/", http.StatusFound)
	})

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		status := http.StatusOK
		if !infra.Lifecycle.Ready() {
			status = http.StatusServiceUnavailable
		}
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"status": infra.Lifecycle.Phase().String()})
	})

	router.HandleNativeHandler("GET /metrics", promhttp.HandlerFor(infra.Registry, promhttp.HandlerOpts{}))

	return router
}
