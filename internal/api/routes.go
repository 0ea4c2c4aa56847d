package api

import (
	"net/http"

	"github.com/JaimeStill/churnstudio/internal/config"
	"github.com/JaimeStill/churnstudio/pkg/handlers"
	"github.com/JaimeStill/churnstudio/pkg/routes"
)

type routeIndex struct {
	Version string   `json:"version"`
	Routes  []string `json:"routes"`
}

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	dashboard := domain.Dashboard.Handler(cfg.API.MaxUploadSizeBytes()).Routes()

	index := routeIndex{Version: cfg.Version, Routes: dashboard.Patterns()}

	routes.Register(
		mux,
		dashboard,
		routes.Group{
			Routes: []routes.Route{{
				Method:  "GET",
				Pattern: "/{$}",
				Handler: func(w http.ResponseWriter, r *http.Request) {
					handlers.RespondJSON(w, http.StatusOK, index)
				},
			}},
		},
	)
}
