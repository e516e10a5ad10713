package piazza

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// APIError is an error reported inside a JSON-RPC response envelope.
type APIError struct {
	Method  string
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("piazza: %s: %s", e.Method, e.Message)
}

// Unwrap classifies the message onto domain errors. Piazza reports
// everything as free text, so matching is by keyword.
func (e *APIError) Unwrap() error {
	msg := strings.ToLower(e.Message)
	switch {
	case strings.Contains(msg, "permission"), strings.Contains(msg, "instructor"):
		return domain.ErrPermissionDenied
	case strings.Contains(msg, "not found"), strings.Contains(msg, "does not exist"):
		return domain.ErrNotFound
	case strings.Contains(msg, "log in"), strings.Contains(msg, "logged in"),
		strings.Contains(msg, "not authenticated"):
		return domain.ErrAuthRequired
	default:
		return nil
	}
}

// StatusError is a non-2xx HTTP response from the API endpoint.
type StatusError struct {
	Method     string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("piazza: %s: status %d: %s", e.Method, e.StatusCode, e.Body)
}

// Unwrap maps the status code onto domain errors.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == 429:
		return domain.ErrRateLimited
	case e.StatusCode == 401 || e.StatusCode == 403:
		return domain.ErrAuthRequired
	case e.StatusCode >= 500:
		return domain.ErrProviderUnreachable
	default:
		return nil
	}
}
