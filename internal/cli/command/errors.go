package command

import (
	"errors"
	"fmt"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/core/service"
)

// Process exit codes.
const (
	ExitOK        = 0
	ExitError     = 1
	ExitAuth      = 2 // sign-in required or rejected
	ExitTransient = 3 // retryable or unreachable
)

// ExitCode maps an error returned by the app to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case domain.IsAuthError(err):
		return ExitAuth
	case domain.IsTransient(err):
		return ExitTransient
	default:
		return ExitError
	}
}

// Describe renders err for the terminal, with a hint on what to do next.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()

	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return msg + "\nhint: check the username and password"
	case errors.Is(err, domain.ErrUnauthenticated):
		return msg + "\nhint: run '" + AppName + " login' to sign in"
	case errors.Is(err, domain.ErrRetryable):
		if ce, ok := service.AsCallError(err); ok && ce.RetryAfter > 0 {
			return msg + fmt.Sprintf("\nhint: try again in %s", ce.RetryAfter)
		}
		return msg + "\nhint: try again later"
	case errors.Is(err, domain.ErrUnreachable):
		return msg + "\nhint: check the endpoint with '" + AppName + " config envs'"
	case errors.Is(err, domain.ErrConfigInvalid):
		return msg + "\nhint: see '" + AppName + " config path' and '" + AppName + " config vars'"
	}
	return msg
}
