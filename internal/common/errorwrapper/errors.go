// Package errorwrapper holds the error types and wrapping helpers shared by all packages.
package errorwrapper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

var (
	// ErrInvalidInput marks errors caused by bad user input (HTTP 400).
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidConfiguration marks unusable configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrTimeout matches a NetworkError whose request ran out of time.
	ErrTimeout = errors.New("operation timed out")
)

// WrapError prefixes err with message. A nil err stays nil.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// WrapErrorf is WrapError with a formatted message.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// NewError creates a new error with a formatted message; %w is honored.
func NewError(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Is lets callers match any ValidationError against ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func NewValidationError(field string, value any, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// NetworkError is a request that got no HTTP reply at all.
type NetworkError struct {
	URL string
	// Reason is the bare failure, without the "Get \"url\":" prefix net/http adds.
	Reason  string
	Timeout bool
	Wrapped error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error for URL '%s': %s", e.URL, e.Reason)
}

func (e *NetworkError) Unwrap() error {
	return e.Wrapped
}

// Is matches ErrTimeout for requests that exceeded a deadline.
func (e *NetworkError) Is(target error) bool {
	return target == ErrTimeout && e.Timeout
}

// NewNetworkError classifies a transport failure for rawURL.
func NewNetworkError(rawURL string, err error) *NetworkError {
	ne := &NetworkError{URL: rawURL, Reason: err.Error(), Wrapped: err}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		ne.Reason = urlErr.Err.Error()
	}

	var netErr net.Error
	ne.Timeout = errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout())
	return ne
}
