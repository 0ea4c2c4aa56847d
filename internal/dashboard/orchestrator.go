package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/JaimeStill/churnstudio/internal/churn"
	"github.com/JaimeStill/churnstudio/internal/operation"
	"github.com/JaimeStill/churnstudio/pkg/lifecycle"
	"github.com/JaimeStill/churnstudio/pkg/pagination"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type orchestrator struct {
	ctx           context.Context
	backend       Backend
	store         *Store
	logger        *slog.Logger
	pagination    pagination.Config
	sweepInterval time.Duration

	callsMu  sync.Mutex
	calls    sync.WaitGroup
	draining bool
}

// New creates the dashboard orchestrator. Backend calls run under ctx rather
// than the triggering request, so they end only when superseded or when ctx
// is cancelled at shutdown.
func New(
	ctx context.Context,
	backend Backend,
	store *Store,
	logger *slog.Logger,
	pagination pagination.Config,
	sweepInterval time.Duration,
) System {
	return &orchestrator{
		ctx:           ctx,
		backend:       backend,
		store:         store,
		logger:        logger.With("system", "dashboard"),
		pagination:    pagination,
		sweepInterval: sweepInterval,
	}
}

func (o *orchestrator) Handler(maxUploadSize int64) *Handler {
	return NewHandler(o, o.logger, o.pagination, maxUploadSize)
}

func (o *orchestrator) Sessions() *Store {
	return o.store
}

func (o *orchestrator) Start(lc *lifecycle.Coordinator) error {
	if o.sweepInterval > 0 {
		o.store.Start(lc, o.sweepInterval)
	}

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		o.callsMu.Lock()
		o.draining = true
		o.callsMu.Unlock()

		o.calls.Wait()
		o.logger.Info("backend calls drained")
	})
	return nil
}

func (o *orchestrator) CheckHealth(s *Session) <-chan struct{} {
	ctx, gen := s.Probe.Begin(o.ctx)
	baseURL := s.BaseURL()

	return o.run(func() {
		err := o.backend.Health(ctx, baseURL)
		if discarded(ctx, err) {
			return
		}

		if err != nil {
			s.Probe.Fail(gen, churn.Message(err, churn.HealthFallback))
			o.logger.Warn("health check failed", "session", s.ID, "base_url", baseURL, "error", err)
			return
		}
		s.Probe.Succeed(gen)
	})
}

func (o *orchestrator) PredictSingle(s *Session, values churn.FormValues) <-chan struct{} {
	rec, err := churn.ParseCustomer(values)
	s.setForm(values, err)

	if err != nil {
		s.Single.Reject(churn.Message(err, churn.ExplainFallback))
		return settled()
	}

	ctx, gen := s.Single.Begin(o.ctx)
	baseURL := s.BaseURL()

	return o.run(func() {
		result, err := o.backend.Explain(ctx, baseURL, rec)
		if discarded(ctx, err) {
			return
		}

		if err != nil {
			s.Single.Fail(gen, churn.Message(err, churn.ExplainFallback))
			o.logger.Warn("prediction failed", "session", s.ID, "error", err)
			return
		}
		s.Single.Succeed(gen, *result)
	})
}

func (o *orchestrator) PredictBatch(s *Session, file *churn.CSVFile) <-chan struct{} {
	if file == nil {
		s.Batch.Reject(churn.Message(churn.ErrFileRequired, churn.BatchFallback))
		return settled()
	}

	ctx, gen := s.Batch.Begin(o.ctx)
	baseURL := s.BaseURL()

	return o.run(func() {
		result, err := o.backend.PredictCSV(ctx, baseURL, file)
		if discarded(ctx, err) {
			return
		}

		if err != nil {
			s.Batch.Fail(gen, churn.Message(err, churn.BatchFallback))
			o.logger.Warn("batch prediction failed", "session", s.ID, "file", file.Name, "error", err)
			return
		}

		if s.Batch.Succeed(gen, *result) {
			o.logger.Info("batch predicted", "session", s.ID, "file", file.Name, "rows", result.RowCount)
		}
	})
}

func (o *orchestrator) SetBaseURL(s *Session, raw string) error {
	url := churn.NormalizeBaseURL(raw)
	if err := validate.Var(url, "required,http_url"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, url)
	}

	s.setBaseURL(url)
	return nil
}

// ResetForm restores the form defaults. A field rejection shown in the
// single-prediction slot is cleared with it; a backend result is kept.
func (o *orchestrator) ResetForm(s *Session) {
	if s.Form().Error != "" {
		s.Single.Reset()
	}
	s.setForm(DefaultFormValues(), nil)
}

func (o *orchestrator) Snapshot(s *Session) Snapshot {
	return Snapshot{
		SessionID: s.ID,
		BaseURL:   s.BaseURL(),
		Form:      s.Form(),
		Probe:     s.Probe.Snapshot(),
		Single:    s.Single.Snapshot(),
		Batch:     s.Batch.Snapshot(),
	}
}

func (o *orchestrator) Rows(s *Session, page pagination.PageRequest) (*pagination.PageResult[churn.Row], error) {
	state := s.Batch.Snapshot()
	if state.Status != operation.Success || state.Payload == nil {
		return nil, ErrNoBatchResult
	}

	page.Normalize(o.pagination)
	result := pagination.Slice(state.Payload.Rows, page)
	return &result, nil
}

// run starts call in the background. Once shutdown begins no new call
// starts and the returned channel is already closed.
func (o *orchestrator) run(call func()) <-chan struct{} {
	o.callsMu.Lock()
	defer o.callsMu.Unlock()

	if o.draining || o.ctx.Err() != nil {
		return settled()
	}

	done := make(chan struct{})
	o.calls.Go(func() {
		defer close(done)
		call()
	})
	return done
}

// discarded reports whether a call ended because it was superseded or the
// service is shutting down; its outcome is not recorded.
func discarded(ctx context.Context, err error) bool {
	return err != nil && ctx.Err() != nil && errors.Is(err, context.Canceled)
}

func settled() <-chan struct{} {
	done := make(chan struct{})
	close(done)
	return done
}
