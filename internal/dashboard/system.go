// Package dashboard orchestrates the health, single-prediction, and CSV
// batch operations for each browser session and exposes them over JSON.
package dashboard

import (
	"context"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/pkg/lifecycle"
	"github.com/JaimeStill/churnstudio/pkg/pagination"
)

// Backend is the remote churn prediction service. *churn.Client implements it.
type Backend interface {
	Health(ctx context.Context, baseURL string) error
	Explain(ctx context.Context, baseURL string, rec churn.CustomerRecord) (*churn.PredictionResult, error)
	PredictCSV(ctx context.Context, baseURL string, file *churn.CSVFile) (*churn.BatchResult, error)
}

// System defines the public contract for dashboard operations.
//
// CheckHealth, PredictSingle, and PredictBatch return immediately with the
// operation in its loading state (or its failure state, when the input is
// rejected locally). The returned channel is closed once the call has
// settled, whether its result was applied or discarded as superseded.
type System interface {
	Handler(maxUploadSize int64) *Handler
	Sessions() *Store

	CheckHealth(s *Session) <-chan struct{}
	PredictSingle(s *Session, values churn.FormValues) <-chan struct{}
	PredictBatch(s *Session, file *churn.CSVFile) <-chan struct{}

	SetBaseURL(s *Session, raw string) error
	ResetForm(s *Session)
	Snapshot(s *Session) Snapshot
	Rows(s *Session, page pagination.PageRequest) (*pagination.PageResult[churn.Row], error)

	Start(lc *lifecycle.Coordinator) error
}
