package hashapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/s0up4200/hashsharing/xmlnode"
)

// Common errors
var (
	// ErrInvalidConfig indicates invalid client configuration
	ErrInvalidConfig = errors.New("invalid hash sharing configuration")
	// ErrTransport is matched by every *TransportError
	ErrTransport = errors.New("hash sharing transport error")
	// ErrMalformedResponse indicates a response that does not have the expected shape
	ErrMalformedResponse = xmlnode.ErrMalformedResponse
)

// TransportError is returned when a request ends with a non-2xx status once
// retries are exhausted, or when the network call itself failed.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
	Err        error
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("hash sharing %s %s failed: %v", e.Method, e.URL, e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("hash sharing %s %s failed with status %d: %v", e.Method, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("hash sharing %s %s failed with status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// Unwrap returns the underlying network error, if any
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// IsNotFound checks if the error indicates a not found response
func (e *TransportError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *TransportError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// IsRetryable reports whether the status is one the GET path retries
func (e *TransportError) IsRetryable() bool {
	return e.StatusCode == 0 || retryableStatus(e.StatusCode)
}
