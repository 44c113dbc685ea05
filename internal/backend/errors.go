package backend

import (
	"errors"
	"fmt"
)

// ErrMalformedResponse is returned when a 2xx body cannot be decoded or lacks
// a field the portal depends on.
var ErrMalformedResponse = errors.New("malformed backend response")

// APIError is a non-2xx backend answer, or a 2xx answer carrying an "error" field.
type APIError struct {
	Endpoint string
	Status   int
	Message  string // backend-provided, may be empty
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d: %s", e.Endpoint, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// Message returns the backend-provided message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func malformed(endpoint, format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w: %s", endpoint, ErrMalformedResponse, fmt.Sprintf(format, args...))
}
