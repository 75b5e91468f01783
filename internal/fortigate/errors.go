package fortigate

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrorKind is the closed set of failure categories surfaced by the client
// and registry. Every failed call resolves to exactly one kind.
type ErrorKind string

const (
	KindConnectivity ErrorKind = "connectivity"
	KindAuth         ErrorKind = "auth"
	KindNotFound     ErrorKind = "not_found"
	KindRateLimited  ErrorKind = "rate_limited"
	KindServer       ErrorKind = "server"
	KindClient       ErrorKind = "client"
	KindParse        ErrorKind = "parse"
	KindConfig       ErrorKind = "config"
	KindUnknown      ErrorKind = "unknown"
)

// APIError is the classified error returned for every failed device
// operation. StatusCode is zero when no HTTP response was received.
type APIError struct {
	Kind       ErrorKind `json:"kind"`
	StatusCode int       `json:"status_code,omitempty"`
	Message    string    `json:"message"`
	Retryable  bool      `json:"retryable"`

	cause error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s (%d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.cause
}

// newAPIError builds an APIError with retryability derived from the kind.
func newAPIError(kind ErrorKind, statusCode int, message string) *APIError {
	return &APIError{
		Kind:       kind,
		StatusCode: statusCode,
		Message:    message,
		Retryable:  kindRetryable(kind),
	}
}

// kindRetryable reports whether calls failing with the given kind may be
// retried internally by the client. Only rate limiting and server-side
// errors qualify; everything else propagates on first occurrence.
func kindRetryable(kind ErrorKind) bool {
	return kind == KindRateLimited || kind == KindServer
}

// classifyStatus maps an HTTP status code to an APIError. It must only be
// called for non-2xx responses.
func classifyStatus(statusCode int, body string) *APIError {
	msg := fmt.Sprintf("API request failed: %d", statusCode)
	if body != "" {
		msg = fmt.Sprintf("%s: %s", msg, body)
	}

	switch {
	case statusCode == 401 || statusCode == 403:
		return newAPIError(KindAuth, statusCode, msg)
	case statusCode == 404:
		return newAPIError(KindNotFound, statusCode, msg)
	case statusCode == 429:
		return newAPIError(KindRateLimited, statusCode, msg)
	case statusCode >= 500:
		return newAPIError(KindServer, statusCode, msg)
	case statusCode >= 400:
		return newAPIError(KindClient, statusCode, msg)
	default:
		return newAPIError(KindUnknown, statusCode, msg)
	}
}

// classifyTransport maps a transport-level failure (no HTTP response) to an
// APIError. Refused connections, DNS failures, TLS failures and timeouts
// are all connectivity errors; anything else is unknown.
func classifyTransport(err error) *APIError {
	apiErr := func(kind ErrorKind, msg string) *APIError {
		e := newAPIError(kind, 0, msg)
		e.cause = err
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return apiErr(KindConnectivity, "request timed out: "+err.Error())
	}

	if errors.Is(err, context.Canceled) {
		return apiErr(KindConnectivity, "request canceled: "+err.Error())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apiErr(KindConnectivity, "request timed out: "+err.Error())
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return apiErr(KindConnectivity, "network error: "+urlErr.Err.Error())
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return apiErr(KindConnectivity, "network error: "+opErr.Error())
	}

	return apiErr(KindUnknown, err.Error())
}

// AsAPIError extracts an APIError from an error chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Kind == kind
}

// toAPIError guarantees classification: errors that are not already
// APIErrors become kind unknown with the original message preserved.
func toAPIError(err error) *APIError {
	if apiErr, ok := AsAPIError(err); ok {
		return apiErr
	}
	e := newAPIError(KindUnknown, 0, err.Error())
	e.cause = err
	return e
}
