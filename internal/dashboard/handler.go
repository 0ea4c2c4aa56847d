package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/pkg/handlers"
	"github.com/JaimeStill/churnstudio/pkg/pagination"
	"github.com/JaimeStill/churnstudio/pkg/routes"
)

// Handler provides the JSON endpoints for dashboard operations. The caller's
// session is resolved from the session cookie on every request.
type Handler struct {
	sys           System
	logger        *slog.Logger
	pagination    pagination.Config
	maxUploadSize int64
}

// SettingsRequest is the body of PUT /settings.
type SettingsRequest struct {
	BaseURL string `json:"base_url"`
}

// NewHandler creates a Handler with the given system, logger, pagination config, and upload size limit.
func NewHandler(
	sys System,
	logger *slog.Logger,
	pagination pagination.Config,
	maxUploadSize int64,
) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "dashboard"),
		pagination:    pagination,
		maxUploadSize: maxUploadSize,
	}
}

// Routes returns the route group definition for dashboard endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/state", Handler: h.State},
			{Method: "PUT", Pattern: "/settings", Handler: h.Settings},
			{Method: "POST", Pattern: "/health", Handler: h.Health},
			{Method: "POST", Pattern: "/predict", Handler: h.Predict},
			{Method: "POST", Pattern: "/predict-csv", Handler: h.PredictCSV},
			{Method: "GET", Pattern: "/batch/rows", Handler: h.BatchRows},
		},
	}
}

// State returns a snapshot of the caller's session.
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	s := h.sys.Sessions().Resolve(w, r)
	handlers.RespondJSON(w, http.StatusOK, h.sys.Snapshot(s))
}

// Settings updates the backend base URL for the caller's session.
func (h *Handler) Settings(w http.ResponseWriter, r *http.Request) {
	s := h.sys.Sessions().Resolve(w, r)

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}

	if err := h.sys.SetBaseURL(s, req.BaseURL); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, h.sys.Snapshot(s))
}

// Health checks backend connectivity and returns the probe state.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	s := h.sys.Sessions().Resolve(w, r)
	done := h.sys.CheckHealth(s)
	h.await(w, r, done, func() any { return s.Probe.Snapshot() })
}

// Predict accepts a JSON object of form fields and returns the single
// prediction state. Values may be JSON strings or numbers.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	s := h.sys.Sessions().Resolve(w, r)

	values, err := decodeFormValues(r.Body)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	done := h.sys.PredictSingle(s, values)
	h.await(w, r, done, func() any { return s.Single.Snapshot() })
}

// PredictCSV accepts a multipart upload with a "file" field and returns the
// batch state. A missing file is reported in the batch state, not as an
// HTTP error.
func (h *Handler) PredictCSV(w http.ResponseWriter, r *http.Request) {
	s := h.sys.Sessions().Resolve(w, r)

	file, err := ReadCSVUpload(w, r, h.maxUploadSize)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	done := h.sys.PredictBatch(s, file)
	h.await(w, r, done, func() any { return s.Batch.Snapshot() })
}

// BatchRows returns a page of the last batch result's rows.
func (h *Handler) BatchRows(w http.ResponseWriter, r *http.Request) {
	s := h.sys.Sessions().Resolve(w, r)
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)

	result, err := h.sys.Rows(s, page)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// await writes the operation state once the call settles. With ?async=true
// it answers 202 immediately with the loading state.
func (h *Handler) await(w http.ResponseWriter, r *http.Request, done <-chan struct{}, state func() any) {
	if r.URL.Query().Get("async") == "true" {
		handlers.RespondJSON(w, http.StatusAccepted, state())
		return
	}

	select {
	case <-done:
		handlers.RespondJSON(w, http.StatusOK, state())
	case <-r.Context().Done():
	}
}

// ReadCSVUpload extracts the "file" field from a multipart request. It
// returns a nil file, not an error, when the field is absent.
func ReadCSVUpload(w http.ResponseWriter, r *http.Request, maxUploadSize int64) (*churn.CSVFile, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || strings.Contains(err.Error(), "request body too large") {
			return nil, ErrFileTooLarge
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	return &churn.CSVFile{Name: header.Filename, Data: data}, nil
}

func decodeFormValues(body io.Reader) (churn.FormValues, error) {
	dec := json.NewDecoder(body)
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, ErrInvalidRequest
	}

	values := make(churn.FormValues, len(raw))
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			values[k] = t
		case json.Number:
			values[k] = t.String()
		case nil:
			values[k] = ""
		default:
			return nil, fmt.Errorf("%w: field %q must be a string or number", ErrInvalidRequest, k)
		}
	}
	return values, nil
}
