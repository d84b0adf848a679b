package leadapi

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from the server. Message carries the
// server-supplied message when one was present in the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// IsUnauthenticated reports whether err is a 401 from the server. A 401
// is a recognized negative outcome (no valid session), distinct from
// other 4xx/5xx failures.
func IsUnauthenticated(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// UserMessage extracts a message suitable for display: the server's own
// message when present, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
