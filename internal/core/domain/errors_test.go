package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name:     "error without details",
			err:      NewDomainError("SUP-TEST-1000", "test message"),
			expected: "[SUP-TEST-1000] test message",
		},
		{
			name:     "error with details",
			err:      NewDomainError("SUP-TEST-1001", "test message").WithDetails("extra info"),
			expected: "[SUP-TEST-1001] test message: extra info",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestDomainError_Is(t *testing.T) {
	err1 := NewDomainError("SUP-TEST-1000", "message 1")
	err2 := NewDomainError("SUP-TEST-1000", "message 2")
	err3 := NewDomainError("SUP-TEST-1001", "message 1")

	if !errors.Is(err1, err2) {
		t.Error("errors.Is should return true for same error code")
	}
	if errors.Is(err1, err3) {
		t.Error("errors.Is should return false for different error code")
	}
	if errors.Is(err1, fmt.Errorf("some error")) {
		t.Error("errors.Is should return false for non-DomainError")
	}
}

func TestDomainError_WrappedSentinel(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := fmt.Errorf("call getOrders: %w", ErrUnreachable.WithCause(cause).WithDetails("dial tcp"))

	if !errors.Is(err, ErrUnreachable) {
		t.Error("wrapped error should match ErrUnreachable")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should still expose its cause")
	}
	if got := GetErrorCode(err); got != ErrUnreachable.Code {
		t.Errorf("GetErrorCode() = %q, want %q", got, ErrUnreachable.Code)
	}
}

func TestIsDomainError(t *testing.T) {
	if !IsDomainError(ErrRetryable, "") {
		t.Error("sentinel should be a DomainError")
	}
	if !IsDomainError(ErrRetryable, ErrRetryable.Code) {
		t.Error("code should match")
	}
	if IsDomainError(ErrRetryable, ErrRejected.Code) {
		t.Error("different code should not match")
	}
	if IsDomainError(errors.New("plain"), "") {
		t.Error("plain error is not a DomainError")
	}
	if GetErrorCode(errors.New("plain")) != "" {
		t.Error("plain error should have no code")
	}
}

func TestWithDetails_DoesNotMutateSentinel(t *testing.T) {
	_ = ErrRejected.WithDetails("something")
	if ErrRejected.Details != "" {
		t.Errorf("sentinel Details mutated to %q", ErrRejected.Details)
	}
}

func TestClassificationHelpers(t *testing.T) {
	tests := []struct {
		err       error
		auth      bool
		transient bool
	}{
		{ErrInvalidCredentials, true, false},
		{ErrUnauthenticated.WithDetails("token expired"), true, false},
		{ErrRetryable, false, true},
		{fmt.Errorf("wrap: %w", ErrUnreachable), false, true},
		{ErrProtocol, false, false},
		{ErrRejected, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := IsAuthError(tt.err); got != tt.auth {
				t.Errorf("IsAuthError() = %v, want %v", got, tt.auth)
			}
			if got := IsTransient(tt.err); got != tt.transient {
				t.Errorf("IsTransient() = %v, want %v", got, tt.transient)
			}
		})
	}
}
