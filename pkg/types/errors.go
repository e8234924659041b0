package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure. Kinds are mutually exclusive: every
// failed invocation reports exactly one kind.
type ErrorKind string

const (
	// KindValidation is malformed caller input, detected before any I/O.
	KindValidation ErrorKind = "validation"

	// KindAuthentication is a rejected API key (HTTP 401).
	KindAuthentication ErrorKind = "authentication"

	// KindRateLimit is a rate-limited request (HTTP 429).
	KindRateLimit ErrorKind = "rate_limit"

	// KindRemote is any other non-2xx HTTP status from the scoring service.
	KindRemote ErrorKind = "remote"

	// KindTimeout is a network-level timeout. No partial result exists.
	KindTimeout ErrorKind = "timeout"

	// KindNetwork is any other network or connection failure.
	KindNetwork ErrorKind = "network"

	// KindResponseFormat is a malformed success payload.
	KindResponseFormat ErrorKind = "response_format"

	// KindUnknown wraps anything unexpected.
	KindUnknown ErrorKind = "unknown"
)

// Error is a classified failure: a kind plus a message, so callers can
// match on kind without depending on concrete error types.
type Error struct {
	Kind    ErrorKind
	Message string
	Status  int // HTTP status for remote errors, 0 otherwise
}

func (e *Error) Error() string {
	return e.Message
}

// NewValidationError reports a malformed input field.
func NewValidationError(field, msg string) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf("%s: %s", field, msg)}
}

// NewAuthenticationError reports a rejected API key.
func NewAuthenticationError() *Error {
	return &Error{Kind: KindAuthentication, Message: "Invalid API key", Status: 401}
}

// NewRateLimitError reports a rate-limited request.
func NewRateLimitError() *Error {
	return &Error{Kind: KindRateLimit, Message: "Rate limit exceeded", Status: 429}
}

// NewRemoteError reports a non-2xx HTTP status other than 401 and 429.
func NewRemoteError(status int) *Error {
	return &Error{Kind: KindRemote, Message: fmt.Sprintf("API error: %d", status), Status: status}
}

// NewTimeoutError reports a network-level timeout.
func NewTimeoutError() *Error {
	return &Error{Kind: KindTimeout, Message: "Request timed out"}
}

// NewNetworkError reports a connection failure with the underlying cause.
func NewNetworkError(err error) *Error {
	return &Error{Kind: KindNetwork, Message: fmt.Sprintf("Request error: %s", err)}
}

// NewResponseFormatError reports a malformed success payload.
func NewResponseFormatError(msg string) *Error {
	return &Error{Kind: KindResponseFormat, Message: msg}
}

// NewUnknownError wraps an unexpected failure.
func NewUnknownError(err error) *Error {
	return &Error{Kind: KindUnknown, Message: fmt.Sprintf("Reranking failed: %s", err)}
}

// KindOf returns the kind carried by err, or KindUnknown when err is
// not a classified Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
