// Package domain defines the core domain models for the supplier portal.
package domain

import (
	"errors"
	"fmt"

	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// DomainError represents a business error with a structured error code.
//
// Client-side classification codes use the SUP-CLI family; codes shared
// with the wire contract are taken from pkg/scriptapi.
type DomainError struct {
	Code    string // Error code (e.g., "SUP-CLI-4010")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a DomainError with the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Client classification (CLI)
// ============================================================================

var (
	// ErrInvalidCredentials indicates the endpoint rejected a login.
	ErrInvalidCredentials = NewDomainError("SUP-CLI-4011", "invalid credentials")

	// ErrUnauthenticated indicates the endpoint rejected (or required) a token.
	ErrUnauthenticated = NewDomainError("SUP-CLI-4010", "not authenticated")

	// ErrRetryable indicates rate limiting or temporary unavailability.
	ErrRetryable = NewDomainError("SUP-CLI-5030", "service temporarily unavailable")

	// ErrProtocol indicates a malformed or unexpected response.
	ErrProtocol = NewDomainError("SUP-CLI-5020", "unexpected response from endpoint")

	// ErrUnreachable indicates no response was received.
	ErrUnreachable = NewDomainError("SUP-CLI-5040", "endpoint unreachable")

	// ErrRejected indicates a well-formed application error from the endpoint.
	ErrRejected = NewDomainError("SUP-CLI-4000", "request rejected")
)

// ============================================================================
// Session and storage (SESS, SYS)
// ============================================================================

var (
	// ErrSessionInvalid indicates persisted session data failed validation.
	ErrSessionInvalid = NewDomainError("SUP-SESS-4001", "session validation failed")

	// ErrStorage indicates a session storage backend failure.
	ErrStorage = NewDomainError("SUP-SYS-5001", "storage error")
)

// ============================================================================
// Arguments and configuration (ARG, CFG)
// ============================================================================

var (
	// ErrInvalidArgument indicates an invalid argument.
	ErrInvalidArgument = NewDomainError(scriptapi.CodeInvalidArgument, "invalid argument")

	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = NewDomainError(scriptapi.CodeNotFound, "not found")

	// ErrConfigInvalid indicates the configuration failed validation.
	ErrConfigInvalid = NewDomainError("SUP-CFG-1001", "invalid configuration")
)

// IsAuthError reports whether err asks the caller to (re)authenticate.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrInvalidCredentials) || errors.Is(err, ErrUnauthenticated)
}

// IsTransient reports whether err is a transient failure worth showing as such.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRetryable) || errors.Is(err, ErrUnreachable)
}
