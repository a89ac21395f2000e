package footballdata

import (
	"fmt"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
)

// ErrorKind classifies a failed request attempt.
type ErrorKind string

const (
	KindRateLimited       ErrorKind = "rate_limited"
	KindUnauthorized      ErrorKind = "unauthorized"
	KindNotFound          ErrorKind = "not_found"
	KindRequestFailed     ErrorKind = "request_failed"
	KindNetworkError      ErrorKind = "network_error"
	KindMalformedResponse ErrorKind = "malformed_response"
	KindTimeout           ErrorKind = "timeout"
)

var (
	ErrRateLimited       = crerr.New("football-data rate limited")
	ErrUnauthorized      = crerr.New("football-data unauthorized")
	ErrNotFound          = crerr.New("football-data not found")
	ErrRequestFailed     = crerr.New("football-data request failed")
	ErrNetwork           = crerr.New("football-data network error")
	ErrMalformedResponse = crerr.New("football-data malformed response")
	ErrTimeout           = crerr.New("football-data timeout")
)

var sentinelByKind = map[ErrorKind]error{
	KindRateLimited:       ErrRateLimited,
	KindUnauthorized:      ErrUnauthorized,
	KindNotFound:          ErrNotFound,
	KindRequestFailed:     ErrRequestFailed,
	KindNetworkError:      ErrNetwork,
	KindMalformedResponse: ErrMalformedResponse,
	KindTimeout:           ErrTimeout,
}

const (
	msgRateLimited  = "API rate limit exceeded. Please try again in a minute."
	msgUnauthorized = "Invalid API key or access denied. Please check your API key."
	msgNotFound     = "API endpoint not found. The service might be unavailable."
	msgNetwork      = "Network error: Unable to connect to the API. Please check your internet connection."
)

// RequestError is the failure half of a Result. Message is meant for display.
type RequestError struct {
	Kind       ErrorKind
	Status     int
	StatusText string
	Message    string
	cause      error
}

func (e *RequestError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

// Unwrap exposes the per-kind sentinel so callers can use errors.Is.
func (e *RequestError) Unwrap() error {
	if e == nil {
		return nil
	}
	return sentinelByKind[e.Kind]
}

// Cause returns the underlying transport or decode error, if any.
func (e *RequestError) Cause() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// KindOf reports the ErrorKind carried by err, or "" when err is not a RequestError.
func KindOf(err error) ErrorKind {
	var reqErr *RequestError
	if crerr.As(err, &reqErr) {
		return reqErr.Kind
	}
	return ""
}

func statusError(status int, statusText string) *RequestError {
	out := &RequestError{Status: status, StatusText: statusText}
	switch status {
	case http.StatusTooManyRequests:
		out.Kind = KindRateLimited
		out.Message = msgRateLimited
	case http.StatusForbidden:
		out.Kind = KindUnauthorized
		out.Message = msgUnauthorized
	case http.StatusNotFound:
		out.Kind = KindNotFound
		out.Message = msgNotFound
	default:
		out.Kind = KindRequestFailed
		out.Message = fmt.Sprintf("API request failed: %d %s", status, statusText)
	}
	return out
}

func networkError(cause error) *RequestError {
	return &RequestError{
		Kind:    KindNetworkError,
		Message: msgNetwork,
		cause:   crerr.Wrap(cause, "send request"),
	}
}

func timeoutError(timeout time.Duration, cause error) *RequestError {
	msg := "API request timed out."
	if timeout > 0 {
		msg = fmt.Sprintf("API request timed out after %s.", timeout)
	}
	return &RequestError{
		Kind:    KindTimeout,
		Message: msg,
		cause:   crerr.Wrap(cause, "send request"),
	}
}

func malformedError(status int, cause error) *RequestError {
	return &RequestError{
		Kind:    KindMalformedResponse,
		Status:  status,
		Message: fmt.Sprintf("Malformed API response: %v", cause),
		cause:   crerr.Wrap(cause, "decode provider payload"),
	}
}
