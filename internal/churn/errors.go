package churn

import (
	"errors"
	"fmt"
)

var (
	ErrUnreachable       = errors.New("backend unreachable")
	ErrTimeout           = errors.New("backend timed out")
	ErrMalformedResponse = errors.New("malformed backend response")
	ErrFileRequired      = errors.New("file required")
)

// Fallback messages used when a failed response carries no usable detail.
const (
	HealthFallback  = "Health check failed"
	ExplainFallback = "Prediction failed"
	BatchFallback   = "CSV prediction failed"
)

// APIError is a non-2xx backend response. Message is already normalized
// for display.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Message converts any error produced by this package into the single
// display string stored in an operation's failure state.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}

	var fieldErr *FieldError
	if errors.As(err, &fieldErr) {
		return fieldErr.Error()
	}

	switch {
	case errors.Is(err, ErrFileRequired):
		return ErrFileRequired.Error()
	case errors.Is(err, ErrTimeout):
		return fmt.Sprintf("%s: %s", fallback, ErrTimeout)
	case errors.Is(err, ErrUnreachable):
		return fmt.Sprintf("%s: %s", fallback, ErrUnreachable)
	}
	return fallback
}
