package transport

import (
	"errors"
	"fmt"
)

// ErrTimeout is wrapped by outcomes whose request exceeded its timeout.
var ErrTimeout = errors.New("request timed out")

// StatusError reports a response with a status other than 200 or 202.
type StatusError struct {
	Code int
	// Body holds the first bytes of the response body.
	Body string
}

// Error implements the [builtin.error] interface.
func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.Code)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.Code, e.Body)
}

// RequestError reports a request that produced no response.
type RequestError struct {
	URL   string
	Cause error
}

// Error implements the [builtin.error] interface.
func (e *RequestError) Error() string {
	return fmt.Sprintf("request to %s failed: %s", e.URL, e.Cause)
}

// Unwrap implements the implicit interface used by [errors.Is] and [errors.As].
func (e *RequestError) Unwrap() error {
	return e.Cause
}
