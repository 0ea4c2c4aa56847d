// Package app serves the server-rendered churn dashboard. Actions post back
// and redirect to the dashboard page, which reloads itself while any
// operation of the session is still in flight.
package app

import (
	"embed"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/internal/dashboard"
	"github.com/JaimeStill/churnstudio/pkg/formatting"
	"github.com/JaimeStill/churnstudio/pkg/module"
	"github.com/JaimeStill/churnstudio/pkg/pagination"
	"github.com/JaimeStill/churnstudio/pkg/web"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	layout      = "app.html"
	refreshSecs = 1
)

var (
	dashboardPage = web.ViewDef{Route: "/{$}", Template: "dashboard.html", Title: "Churn Studio"}
	notFoundPage  = web.ViewDef{Template: "not-found.html", Title: "Not Found"}
)

// Config holds the settings the dashboard module needs.
type Config struct {
	BasePath      string
	MaxUploadSize int64
	Pagination    pagination.Config
}

type app struct {
	sys    dashboard.System
	ts     *web.TemplateSet
	cfg    Config
	logger *slog.Logger
}

// NewModule creates the dashboard module mounted at cfg.BasePath.
func NewModule(cfg Config, sys dashboard.System, logger *slog.Logger) (*module.Module, error) {
	ts, err := web.NewTemplateSet(
		templateFS,
		templateFS,
		"templates/layouts/*.html",
		"templates/views",
		cfg.BasePath,
		[]web.ViewDef{dashboardPage, notFoundPage},
	)
	if err != nil {
		return nil, err
	}

	a := &app{
		sys:    sys,
		ts:     ts,
		cfg:    cfg,
		logger: logger.With("module", "app"),
	}

	router := web.NewRouter()
	router.SetFallback(ts.ErrorHandler(layout, notFoundPage, http.StatusNotFound))

	router.HandleFunc("GET "+dashboardPage.Route, a.page)
	router.HandleFunc("POST /settings", a.settings)
	router.HandleFunc("POST /health", a.health)
	router.HandleFunc("POST /predict", a.predict)
	router.HandleFunc("POST /batch", a.batch)
	router.HandleFunc("POST /reset", a.reset)
	router.Handle("GET /static/", web.DistServer(staticFS, "static", "/static/"))

	return module.New(cfg.BasePath, router), nil
}

func (a *app) page(w http.ResponseWriter, r *http.Request) {
	s := a.sys.Sessions().Resolve(w, r)
	snap := a.sys.Snapshot(s)
	query := r.URL.Query()

	view := newDashboardView(snap, pagination.PageRequestFromQuery(query, a.cfg.Pagination))

	switch query.Get("settings") {
	case "invalid":
		view.SettingsError = "Enter an absolute http or https URL."
	}
	switch query.Get("upload") {
	case "too-large":
		view.UploadError = "The file exceeds the " + formatting.FormatBytes(a.cfg.MaxUploadSize, 0) + " upload limit."
	case "invalid":
		view.UploadError = "The upload could not be read."
	}

	data := web.ViewData{Title: dashboardPage.Title, Data: view}
	if snap.Busy() {
		data.Refresh = refreshSecs
	}

	if err := a.ts.Render(w, layout, dashboardPage.Template, data); err != nil {
		a.logger.Error("render failed", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (a *app) settings(w http.ResponseWriter, r *http.Request) {
	s := a.sys.Sessions().Resolve(w, r)

	if err := a.sys.SetBaseURL(s, r.FormValue("base_url")); err != nil {
		a.redirect(w, r, "?settings=invalid")
		return
	}
	a.redirect(w, r, "")
}

func (a *app) health(w http.ResponseWriter, r *http.Request) {
	s := a.sys.Sessions().Resolve(w, r)
	a.sys.CheckHealth(s)
	a.redirect(w, r, "")
}

func (a *app) predict(w http.ResponseWriter, r *http.Request) {
	s := a.sys.Sessions().Resolve(w, r)

	if err := r.ParseForm(); err != nil {
		a.redirect(w, r, "")
		return
	}

	values := make(churn.FormValues, len(churn.FieldOrder))
	for _, field := range churn.FieldOrder {
		values[field] = r.PostForm.Get(field)
	}

	a.sys.PredictSingle(s, values)
	a.redirect(w, r, "")
}

func (a *app) batch(w http.ResponseWriter, r *http.Request) {
	s := a.sys.Sessions().Resolve(w, r)

	file, err := dashboard.ReadCSVUpload(w, r, a.cfg.MaxUploadSize)
	if err != nil {
		a.logger.Warn("upload rejected", "error", err)
		if errors.Is(err, dashboard.ErrFileTooLarge) {
			a.redirect(w, r, "?upload=too-large")
		} else {
			a.redirect(w, r, "?upload=invalid")
		}
		return
	}

	a.sys.PredictBatch(s, file)
	a.redirect(w, r, "")
}

func (a *app) reset(w http.ResponseWriter, r *http.Request) {
	s := a.sys.Sessions().Resolve(w, r)
	a.sys.ResetForm(s)
	a.redirect(w, r, "")
}

func (a *app) redirect(w http.ResponseWriter, r *http.Request, query string) {
	http.Redirect(w, r, a.ts.BasePath()+"/"+query, http.StatusSeeOther)
}
