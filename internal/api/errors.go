package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConfiguration indicates a bad client setup (missing or malformed base URL, closed client)
	ErrTypeConfiguration ErrorType = iota
	// ErrTypeAuth indicates missing credentials or a 401/403 response
	ErrTypeAuth
	// ErrTypeTransport indicates a network failure, timeout or retryable server status
	ErrTypeTransport
	// ErrTypeAPI indicates a non-2xx response that is not retried
	ErrTypeAPI
	// ErrTypeValidation indicates a response payload that does not match its schema
	ErrTypeValidation
)

// NetworkErrorSubtype provides more specific transport error classification
type NetworkErrorSubtype int

const (
	// NetworkErrorNone means no transport failure
	NetworkErrorNone NetworkErrorSubtype = iota
	// NetworkErrorGeneral is an unrecognised transport failure; it is not retried
	NetworkErrorGeneral
	// NetworkErrorTimeout is a dial, TLS or response deadline that expired
	NetworkErrorTimeout
	// NetworkErrorConnectionRefused means nothing listens on the port
	NetworkErrorConnectionRefused
	// NetworkErrorConnectionReset means the peer dropped the connection mid-request
	NetworkErrorConnectionReset
	// NetworkErrorDNS is a host name lookup failure
	NetworkErrorDNS
	// NetworkErrorHostUnreachable means no route to the host
	NetworkErrorHostUnreachable
	// NetworkErrorNetworkUnreachable means no route to the network
	NetworkErrorNetworkUnreachable
	// NetworkErrorServerStatus is a retryable 5xx response
	NetworkErrorServerStatus
	// NetworkErrorCancelled means the caller's context ended or the client was closed
	NetworkErrorCancelled
	// NetworkErrorTLS is a certificate or handshake failure; it is not retried
	NetworkErrorTLS
)

// ErrClientClosed is the cause of every failure on a client after Close.
var ErrClientClosed = errors.New("openmotics: client closed")

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConfiguration:
		return "Configuration Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeTransport:
		return "Transport Error"
	case ErrTypeAPI:
		return "API Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the single error type surfaced by the client. Type selects the
// taxonomy bucket; StatusCode and Body are set for HTTP-level failures.
type Error struct {
	Type           ErrorType           // Category of error
	Message        string              // Human-readable error message
	StatusCode     int                 // HTTP status code (if applicable)
	Body           []byte              // Response body (if applicable)
	Field          string              // Offending field for validation errors
	Attempts       int                 // Attempts made before giving up (transport errors)
	NetworkSubtype NetworkErrorSubtype // More specific transport error type
	Retryable      bool                // Whether another attempt may succeed
	Err            error               // Underlying error (if any)
}

// Error implements the error interface
func (e *Error) Error() string {
	msg := fmt.Sprintf("openmotics: %s: %s", e.Type, e.Message)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Attempts > 1 {
		msg += fmt.Sprintf(" after %d attempts", e.Attempts)
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport failure onto a subtype and decides
// whether it is worth another attempt.
func ClassifyNetworkError(err error) (NetworkErrorSubtype, bool) {
	if err == nil {
		return NetworkErrorNone, false
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, ErrClientClosed) {
		return NetworkErrorCancelled, false
	}

	if isTLSError(err) {
		return NetworkErrorTLS, false
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return NetworkErrorTimeout, true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NetworkErrorTimeout, true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		// A name that does not resolve will not resolve on the next attempt either.
		return NetworkErrorDNS, dnsErr.IsTemporary
	}

	switch {
	case errors.Is(err, syscall.ECONNREFUSED):
		return NetworkErrorConnectionRefused, true
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, io.EOF):
		return NetworkErrorConnectionReset, true
	case errors.Is(err, syscall.EHOSTUNREACH):
		return NetworkErrorHostUnreachable, true
	case errors.Is(err, syscall.ENETUNREACH):
		return NetworkErrorNetworkUnreachable, true
	}

	return NetworkErrorGeneral, false
}

// isTLSError reports certificate verification and handshake failures, which
// fail the same way on every attempt.
func isTLSError(err error) bool {
	var (
		verifyErr  *tls.CertificateVerificationError
		unknownCA  x509.UnknownAuthorityError
		hostErr    x509.HostnameError
		invalidErr x509.CertificateInvalidError
		recordErr  tls.RecordHeaderError
		tlsAlert   tls.AlertError
	)
	return errors.As(err, &verifyErr) ||
		errors.As(err, &unknownCA) ||
		errors.As(err, &hostErr) ||
		errors.As(err, &invalidErr) ||
		errors.As(err, &recordErr) ||
		errors.As(err, &tlsAlert)
}

// NewConfigurationError creates a configuration error
func NewConfigurationError(message string, err error) *Error {
	return &Error{
		Type:    ErrTypeConfiguration,
		Message: message,
		Err:     err,
	}
}

// NewAuthError creates an authentication error. statusCode is 0 when the
// failure happened before any request was sent.
func NewAuthError(statusCode int, message string, err error) *Error {
	return &Error{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewNetworkError creates a transport error with automatic classification
func NewNetworkError(message string, err error) *Error {
	subtype, retryable := ClassifyNetworkError(err)
	return &Error{
		Type:           ErrTypeTransport,
		Message:        message,
		NetworkSubtype: subtype,
		Retryable:      retryable,
		Err:            err,
	}
}

// NewServerStatusError creates a retryable transport error for a server status
// such as 503.
func NewServerStatusError(statusCode int, body []byte) *Error {
	return &Error{
		Type:           ErrTypeTransport,
		Message:        "server returned a transient error",
		StatusCode:     statusCode,
		Body:           body,
		NetworkSubtype: NetworkErrorServerStatus,
		Retryable:      true,
	}
}

// NewAPIError creates an error for a non-2xx response that is not retried
func NewAPIError(statusCode int, body []byte) *Error {
	return &Error{
		Type:       ErrTypeAPI,
		Message:    "request rejected by the API",
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewValidationError creates a validation error
func NewValidationError(field, message string, err error) *Error {
	return &Error{
		Type:    ErrTypeValidation,
		Message: message,
		Field:   field,
		Err:     err,
	}
}

func asError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func isType(err error, t ErrorType) bool {
	apiErr, ok := asError(err)
	return ok && apiErr.Type == t
}

// IsConfigurationError checks if an error is a configuration error
func IsConfigurationError(err error) bool { return isType(err, ErrTypeConfiguration) }

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool { return isType(err, ErrTypeAuth) }

// IsTransportError checks if an error is a transport error
func IsTransportError(err error) bool { return isType(err, ErrTypeTransport) }

// IsAPIError checks if an error is a non-retried API error
func IsAPIError(err error) bool { return isType(err, ErrTypeAPI) }

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrTypeValidation) }

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	if apiErr, ok := asError(err); ok {
		return apiErr.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	if apiErr, ok := asError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}
