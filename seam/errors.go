package seam

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrMissingAPIKey is returned by New when no API key is supplied.
var ErrMissingAPIKey = errors.New("seam: api key required")

// APIError describes a non-2xx response from the Seam API.
type APIError struct {
	// Status is the HTTP status code.
	Status int
	// Type is the Seam error type, e.g. "device_not_found".
	Type string
	// Message is the human readable error message from the response.
	Message string
	// RequestID identifies the request in Seam support tooling.
	RequestID string
	// Path is the API path that failed.
	Path string
	// Body holds the raw response body for diagnostics.
	Body []byte
	// RetryAfter is the parsed Retry-After hint, if any.
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	switch {
	case e.Type != "" && e.Message != "":
		return fmt.Sprintf("seam: %s: %s", e.Type, e.Message)
	case e.Message != "":
		return "seam: " + e.Message
	case e.Type != "":
		return fmt.Sprintf("seam: %s (status %d)", e.Type, e.Status)
	}
	return fmt.Sprintf("seam: status %d", e.Status)
}

// Retryable reports whether the failure class is usually transient. The client
// itself never retries.
func (e *APIError) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Status == http.StatusTooManyRequests ||
		e.Status == http.StatusRequestTimeout ||
		e.Status >= 500 ||
		e.RetryAfter > 0
}

// IsNotFound reports whether err is a Seam "not found" response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Status == http.StatusNotFound || strings.HasSuffix(apiErr.Type, "_not_found")
}

type errorEnvelope struct {
	Error struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

func parseRetryAfter(raw string) time.Duration {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	if seconds, err := strconv.ParseFloat(raw, 64); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds * float64(time.Second))
	}
	if ts, err := http.ParseTime(raw); err == nil {
		if delay := time.Until(ts); delay > 0 {
			return delay
		}
	}
	return 0
}
