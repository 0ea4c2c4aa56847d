package churn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
)

const maxResponseBytes = 32 << 20

// Options configures a Client.
type Options struct {
	HTTPClient    *http.Client
	HealthTimeout time.Duration
	MaxInFlight   int64
	Metrics       *Metrics
}

// Client calls the churn prediction backend. Only Health applies a timeout;
// Explain and PredictCSV run until answered or until ctx is cancelled.
type Client struct {
	http          *http.Client
	sem           *semaphore.Weighted
	metrics       *Metrics
	healthTimeout time.Duration
	logger        *slog.Logger
}

func New(opts Options, logger *slog.Logger) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	healthTimeout := opts.HealthTimeout
	if healthTimeout <= 0 {
		healthTimeout = 5 * time.Second
	}

	maxInFlight := opts.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = 16
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Client{
		http:          httpClient,
		sem:           semaphore.NewWeighted(maxInFlight),
		metrics:       metrics,
		healthTimeout: healthTimeout,
		logger:        logger.With("system", "churn-client"),
	}
}

// NormalizeBaseURL trims whitespace and strips trailing slashes.
func NormalizeBaseURL(raw string) string {
	return strings.TrimRight(strings.TrimSpace(raw), "/")
}

// Health performs GET {baseURL}/health. Any 2xx status is healthy.
func (c *Client) Health(ctx context.Context, baseURL string) (err error) {
	start := time.Now()
	defer func() { c.metrics.observe(OpHealth, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint(baseURL, "/health"), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	status, body, err := c.do(ctx, req)
	if err != nil {
		return err
	}

	if !success(status) {
		return &APIError{Status: status, Message: ErrorMessage(decodeLoose(body), HealthFallback)}
	}
	return nil
}

// Explain posts rec to {baseURL}/explain and normalizes the explanation.
// A 2xx body that is not a JSON object is ErrMalformedResponse.
func (c *Client) Explain(ctx context.Context, baseURL string, rec CustomerRecord) (result *PredictionResult, err error) {
	start := time.Now()
	defer func() { c.metrics.observe(OpExplain, start, err) }()

	payload, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode customer record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(baseURL, "/explain"), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	if !success(status) {
		return nil, &APIError{Status: status, Message: ErrorMessage(decodeLoose(body), ExplainFallback)}
	}

	obj, err := DecodeObject(body)
	if err != nil {
		return nil, err
	}

	normalized := NormalizePrediction(obj)
	return &normalized, nil
}

// PredictCSV uploads file as multipart field "file" to
// {baseURL}/predict-csv. A 2xx body that fails to parse is treated as an
// empty object.
func (c *Client) PredictCSV(ctx context.Context, baseURL string, file *CSVFile) (result *BatchResult, err error) {
	if file == nil {
		return nil, ErrFileRequired
	}

	start := time.Now()
	defer func() { c.metrics.observe(OpBatch, start, err) }()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint(baseURL, "/predict-csv"), &buf)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	status, body, err := c.do(ctx, req)
	if err != nil {
		return nil, err
	}

	obj := decodeLoose(body)
	if !success(status) {
		return nil, &APIError{Status: status, Message: ErrorMessage(obj, BatchFallback)}
	}

	normalized := NormalizeBatch(obj)
	if normalized.Filename == "" {
		normalized.Filename = file.Name
	}
	return &normalized, nil
}

// do acquires a client slot, sends req and reads the whole body.
// Cancellation of ctx is returned as ctx.Err() so callers can tell it apart
// from a transport failure.
func (c *Client) do(ctx context.Context, req *http.Request) (int, []byte, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return 0, nil, transportError(ctx, err)
	}
	c.metrics.inFlight.Inc()
	defer func() {
		c.metrics.inFlight.Dec()
		c.sem.Release(1)
	}()

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, transportError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, transportError(ctx, err)
	}

	c.logger.Debug("backend call", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode)
	return resp.StatusCode, body, nil
}

func transportError(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

func decodeLoose(body []byte) map[string]any {
	obj, err := DecodeObject(body)
	if err != nil {
		return map[string]any{}
	}
	return obj
}

func endpoint(baseURL, path string) string {
	return NormalizeBaseURL(baseURL) + path
}

func success(status int) bool {
	return status >= 200 && status < 300
}
