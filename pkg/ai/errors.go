package ai

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode categorizes provider call failures for the retry policy
type ErrorCode string

const (
	// CodeRateLimited marks a "too many requests" signal, retried with
	// exponential backoff
	CodeRateLimited ErrorCode = "rate_limited"

	// CodeTransient marks errors worth one short retry (5xx, network)
	CodeTransient ErrorCode = "transient"

	// CodeProviderError marks everything else the backend reported
	CodeProviderError ErrorCode = "provider_error"
)

// ProviderError is a classified failure from a backend call
type ProviderError struct {
	Provider string
	Code     ErrorCode
	Status   int
	Message  string
	wrapped  error
}

func (e *ProviderError) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.wrapped }

// IsRateLimited reports whether err carries a rate-limit signal
func IsRateLimited(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Code == CodeRateLimited
}

// classifyStatus maps an HTTP status to an error code
func classifyStatus(status int) ErrorCode {
	switch {
	case status == http.StatusTooManyRequests:
		return CodeRateLimited
	case status >= 500:
		return CodeTransient
	default:
		return CodeProviderError
	}
}

// statusError builds a ProviderError from an HTTP error response
func statusError(provider string, status int, body string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     classifyStatus(status),
		Status:   status,
		Message:  fmt.Sprintf("status %d: %s", status, body),
	}
}

// transportError wraps a network-level failure as transient
func transportError(provider string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     CodeTransient,
		Message:  "request failed",
		wrapped:  err,
	}
}
