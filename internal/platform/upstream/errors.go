// Package upstream normalizes failures of the outbound services the app
// calls: the verification API and the pinning service.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// MaxResponseBytes bounds the response bodies read from upstream services.
const MaxResponseBytes int64 = 1 << 20

// ErrorCategory defines the normalized failure taxonomy
type ErrorCategory string

const (
	// ErrorTimeout indicates the service took too long to respond
	ErrorTimeout ErrorCategory = "timeout"

	// ErrorBadData indicates the service returned invalid/malformed data
	ErrorBadData ErrorCategory = "bad_data"

	// ErrorAuthentication indicates credential or permission issues
	ErrorAuthentication ErrorCategory = "authentication"

	// ErrorOutage indicates the service is unavailable
	ErrorOutage ErrorCategory = "outage"

	// ErrorRejected indicates the service refused the request as invalid
	ErrorRejected ErrorCategory = "rejected"

	// ErrorRateLimited indicates too many requests
	ErrorRateLimited ErrorCategory = "rate_limited"

	// ErrorInternal indicates an unexpected internal error
	ErrorInternal ErrorCategory = "internal"
)

// Error wraps an outbound failure with normalized categorization.
type Error struct {
	Category   ErrorCategory
	Service    string
	Message    string
	StatusCode int
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.Service, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.Service, e.Category, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// NewError creates a categorized upstream error.
func NewError(category ErrorCategory, service, message string, underlying error) *Error {
	return &Error{
		Category:   category,
		Service:    service,
		Message:    message,
		Underlying: underlying,
	}
}

// FromStatus builds an error for a non-2xx response.
func FromStatus(service string, status int, body string) *Error {
	e := NewError(CategoryForStatus(status), service, fmt.Sprintf("failed with status %d: %s", status, body), nil)
	e.StatusCode = status
	return e
}

// FromTransport categorizes an error returned by http.Client.Do.
func FromTransport(service string, err error) *Error {
	category := ErrorOutage
	if errors.Is(err, context.DeadlineExceeded) {
		category = ErrorTimeout
	}
	return NewError(category, service, "request failed", err)
}

// ReadBody reads at most limit bytes of an upstream response body. Longer
// bodies are bad data; read failures are categorized like transport errors.
func ReadBody(service string, body io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, FromTransport(service, err)
	}
	if int64(len(raw)) > limit {
		return nil, NewError(ErrorBadData, service, fmt.Sprintf("response exceeds %d bytes", limit), nil)
	}
	return raw, nil
}

// CategoryForStatus maps an HTTP status to a category.
func CategoryForStatus(status int) ErrorCategory {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorAuthentication
	case status == http.StatusTooManyRequests:
		return ErrorRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return ErrorTimeout
	case status >= 500:
		return ErrorOutage
	case status >= 400:
		return ErrorRejected
	default:
		return ErrorBadData
	}
}

// GetCategory extracts the error category from an error
func GetCategory(err error) ErrorCategory {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Category
	}
	return ErrorInternal
}

// Unavailable reports whether err means the service itself is unhealthy, as
// opposed to rejecting this particular request.
func Unavailable(err error) bool {
	switch GetCategory(err) {
	case ErrorTimeout, ErrorOutage, ErrorRateLimited:
		return true
	}
	return false
}
