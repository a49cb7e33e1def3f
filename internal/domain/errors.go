package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared across the orchestration layer. Engines wrap these
// with context; the API layer maps them to HTTP statuses.
var (
	// ErrProviderNotFound means the requested provider id has no config row.
	ErrProviderNotFound = errors.New("provider not found")
	// ErrProviderMisconfigured means required fields for the provider's kind are missing.
	ErrProviderMisconfigured = errors.New("provider misconfigured")
	// ErrRateLimited is an upstream 429 after any internal retries are exhausted.
	ErrRateLimited = errors.New("rate limited by upstream")
	// ErrNotConfigured means the Zotero account id or API key is not set.
	ErrNotConfigured = errors.New("zotero account not configured")
	// ErrIntegrity means a stored secret blob failed authentication or is malformed.
	ErrIntegrity = errors.New("credential integrity check failed")
	// ErrEmptyResult means the provider returned no usable content.
	ErrEmptyResult = errors.New("provider returned empty result")
	// ErrUnsupportedProviderKind means the operation needs a different provider kind.
	ErrUnsupportedProviderKind = errors.New("operation not supported by provider kind")
)

// UpstreamError is a terminal non-2xx reply from an external API. Body holds
// a truncated excerpt for diagnostics.
type UpstreamError struct {
	Service string
	Status  int
	Body    string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: upstream status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: upstream status %d: %s", e.Service, e.Status, e.Body)
}

// NewUpstreamError truncates body to 240 bytes and builds an UpstreamError.
func NewUpstreamError(service string, status int, body string) *UpstreamError {
	const max = 240
	if len(body) > max {
		body = body[:max] + "..."
	}
	return &UpstreamError{Service: service, Status: status, Body: body}
}

// ValidationError marks malformed or missing request fields.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
