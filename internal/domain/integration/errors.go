package integration

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// Remote system errors
// ---------------------------------------------------------------------------

var (
	// ErrUpstreamUnavailable means the remote system could not be reached (connection, timeout).
	// Callers may retry.
	ErrUpstreamUnavailable = errors.New("integration: upstream unavailable")
	// ErrUpstreamRejected means the remote system answered with a non-2xx status,
	// including authentication failures, or with a body that could not be decoded.
	ErrUpstreamRejected = errors.New("integration: upstream rejected request")
	// ErrNotFound means the remote system reported that the record does not exist.
	ErrNotFound = errors.New("integration: record not found")
	// ErrNotConfigured means an adapter is missing required connection settings.
	ErrNotConfigured = errors.New("integration: remote system not configured")
)

// System identifies a remote system of record
type System string

const (
	// SystemJira is the issue tracker
	SystemJira System = "jira"
	// SystemPipedrive is the CRM
	SystemPipedrive System = "pipedrive"
)

// String returns the string representation of System
func (s System) String() string {
	return string(s)
}

// maxErrorBodyLength bounds the upstream body folded into error messages
const maxErrorBodyLength = 512

// UpstreamError describes a failed call to a remote system.
// It unwraps to one of the sentinel errors above and, for transport failures, to the cause.
type UpstreamError struct {
	// System is the remote system that was called
	System System
	// Operation is a short name of the adapter operation (e.g. "create deal")
	Operation string
	// StatusCode is the HTTP status returned upstream, 0 for transport failures
	StatusCode int
	// Body is the (truncated) upstream response body
	Body string
	// Kind is ErrUpstreamUnavailable, ErrUpstreamRejected or ErrNotFound
	Kind error
	// Cause is the underlying transport or decode error, if any
	Cause error
}

// NewUnavailableError wraps a transport failure
func NewUnavailableError(system System, operation string, cause error) *UpstreamError {
	return &UpstreamError{
		System:    system,
		Operation: operation,
		Kind:      ErrUpstreamUnavailable,
		Cause:     cause,
	}
}

// NewRejectedError describes a non-2xx upstream response. 404 maps to ErrNotFound.
func NewRejectedError(system System, operation string, statusCode int, body []byte) *UpstreamError {
	kind := ErrUpstreamRejected
	if statusCode == 404 {
		kind = ErrNotFound
	}
	return &UpstreamError{
		System:     system,
		Operation:  operation,
		StatusCode: statusCode,
		Body:       truncateBody(body),
		Kind:       kind,
	}
}

// NewInvalidResponseError describes a 2xx response whose body could not be decoded
func NewInvalidResponseError(system System, operation string, cause error) *UpstreamError {
	return &UpstreamError{
		System:    system,
		Operation: operation,
		Kind:      ErrUpstreamRejected,
		Cause:     fmt.Errorf("invalid response: %w", cause),
	}
}

// Error implements the error interface
func (e *UpstreamError) Error() string {
	prefix := fmt.Sprintf("%s %s", e.System, e.Operation)
	switch {
	case e.StatusCode > 0 && e.Body != "":
		return fmt.Sprintf("%s: %v: HTTP %d: %s", prefix, e.Kind, e.StatusCode, e.Body)
	case e.StatusCode > 0:
		return fmt.Sprintf("%s: %v: HTTP %d", prefix, e.Kind, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v: %v", prefix, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("%s: %v", prefix, e.Kind)
	}
}

// Unwrap exposes both the error kind and the cause to errors.Is / errors.As
func (e *UpstreamError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// IsAuthFailure reports whether the upstream refused our credentials (401/403)
func (e *UpstreamError) IsAuthFailure() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsRetryable reports whether err is a transient upstream failure worth retrying.
// Rejections and missing records are never retryable.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrUpstreamUnavailable)
}

func truncateBody(body []byte) string {
	if len(body) > maxErrorBodyLength {
		return string(body[:maxErrorBodyLength]) + "..."
	}
	return string(body)
}
