package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError reports a call that never produced an HTTP response
// (connection failure, DNS, timeout).
type RequestError struct {
	Method string
	URL    string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// StatusError reports a non-2xx response. Body holds the decoded JSON error
// body when it parses, otherwise the raw text.
type StatusError struct {
	Method  string
	URL     string
	Status  int
	Body    any
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.URL, e.Status)
}

// HTTPStatus returns the response status.
func (e *StatusError) HTTPStatus() int { return e.Status }

// IsAuthFailure reports whether the status triggers the auth interceptor.
func (e *StatusError) IsAuthFailure() bool {
	return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not a *StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status
	}
	return 0
}

// ErrUnknownAPI is returned when a request names an API with no configured base URL.
var ErrUnknownAPI = errors.New("gateway: unknown api")
