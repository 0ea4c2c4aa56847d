package dashboard

import (
	"errors"
	"net/http"
)

// Domain errors for dashboard operations.
var (
	ErrInvalidBaseURL  = errors.New("base URL must be an absolute http or https URL")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoBatchResult   = errors.New("no batch result available")
	ErrFileTooLarge    = errors.New("file exceeds maximum upload size")
	ErrInvalidRequest  = errors.New("invalid request body")
)

// MapHTTPStatus maps dashboard domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidBaseURL) || errors.Is(err, ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrNoBatchResult) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrFileTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusInternalServerError
}
