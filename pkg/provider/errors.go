package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrProviderUnavailable means the vendor could not be reached or
	// refused our credentials (transport failure, 401/403, 429, 5xx, or
	// no API key configured).
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrInvalidModel means the vendor rejected the model identifier.
	ErrInvalidModel = errors.New("invalid model")
)

// APIError is returned by every adapter. Kind is ErrProviderUnavailable,
// ErrInvalidModel, or nil for vendor errors outside that taxonomy.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Kind       error
	Cause      error
}

func (e *APIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Provider)
	if e.Kind != nil {
		b.WriteString(": ")
		b.WriteString(e.Kind.Error())
	}
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": HTTP %d", e.StatusCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	return b.String()
}

// Unwrap exposes both the taxonomy sentinel and the underlying cause.
func (e *APIError) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

func unavailable(provider string, cause error) *APIError {
	return &APIError{Provider: provider, Message: cause.Error(), Kind: ErrProviderUnavailable, Cause: cause}
}

func missingKey(provider string) *APIError {
	return &APIError{Provider: provider, Message: "no API key configured", Kind: ErrProviderUnavailable}
}

// classifyStatus maps a vendor HTTP failure onto the error taxonomy.
func classifyStatus(provider string, status int, message string) *APIError {
	e := &APIError{Provider: provider, StatusCode: status, Message: message}
	switch {
	case status == http.StatusUnauthorized,
		status == http.StatusForbidden,
		status == http.StatusRequestTimeout,
		status == http.StatusTooManyRequests,
		status >= 500:
		e.Kind = ErrProviderUnavailable
	case status == http.StatusNotFound:
		e.Kind = ErrInvalidModel
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if mentionsModel(message) {
			e.Kind = ErrInvalidModel
		}
	}
	return e
}

func mentionsModel(message string) bool {
	return strings.Contains(strings.ToLower(message), "model")
}

// retryableError wraps errors that should trigger a retry.
type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// isRetryable returns true if the error should trigger a retry.
func isRetryable(err error) bool {
	var re *retryableError
	return errors.As(err, &re)
}
