// Package provider adapts composed requests to external reasoning services.
package provider

import (
	"fmt"
	"net/http"
)

// APIError is a non-success answer from the reasoning service
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("reasoning service status %d: %s", e.StatusCode, e.Message)
}

// Oversized reports whether the failure is the kind the service returns for
// inputs that are too large or too slow to analyse: payload too large, or a
// server-side error.
func (e *APIError) Oversized() bool {
	return e.StatusCode == http.StatusRequestEntityTooLarge || e.StatusCode >= http.StatusInternalServerError
}
