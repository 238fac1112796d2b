package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// CallError describes a failed remote operation.
//
// It unwraps to its Kind (one of the domain classification sentinels) and
// to Cause, so both errors.Is(err, domain.ErrRetryable) and
// errors.Is(err, context.Canceled) work.
type CallError struct {
	Operation  string
	Kind       *domain.DomainError
	StatusCode int    // 0 when no response was received
	ServerCode string // envelope code, if any
	Message    string // envelope message, if any
	RequestID  string
	RetryAfter time.Duration // server hint for Retryable, 0 if none
	Cause      error
}

func (e *CallError) Error() string {
	var b strings.Builder
	b.WriteString(e.Operation)
	b.WriteString(": ")
	b.WriteString(e.Kind.Message)
	if e.ServerCode != "" {
		fmt.Fprintf(&b, " [%s]", e.ServerCode)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	} else if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	if e.RetryAfter > 0 {
		fmt.Fprintf(&b, " (retry after %s)", e.RetryAfter)
	}
	return b.String()
}

// Unwrap returns the classification sentinel and the cause.
func (e *CallError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// AsCallError extracts a *CallError from err.
func AsCallError(err error) (*CallError, bool) {
	var ce *CallError
	ok := errors.As(err, &ce)
	return ce, ok
}

// Response is a successful endpoint answer.
type Response struct {
	Operation string
	RequestID string
	Message   string
	Data      json.RawMessage
}

// Decode unmarshals the response data into v. A shape mismatch is a
// protocol error.
func (r *Response) Decode(v any) error {
	data := r.Data
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &CallError{
			Operation: r.Operation,
			Kind:      domain.ErrProtocol,
			RequestID: r.RequestID,
			Cause:     fmt.Errorf("decode %s data: %w", r.Operation, err),
		}
	}
	return nil
}

// transportFailure classifies an error from the transport, where no
// envelope was obtained.
func transportFailure(op, requestID string, err error) *CallError {
	ce := &CallError{
		Operation: op,
		Kind:      domain.ErrUnreachable,
		RequestID: requestID,
		Cause:     err,
	}

	var be *scriptapi.BodyError
	if errors.As(err, &be) {
		ce.Kind = domain.ErrProtocol
		ce.StatusCode = be.StatusCode
	}
	return ce
}

// classify maps a raw reply to a Response or a *CallError.
//
// Order matters: retryable signals win over everything, then auth
// rejections, then envelope shape, then application codes.
func classify(op string, login bool, reply *scriptapi.Reply, now time.Time) (*Response, *CallError) {
	var env scriptapi.Response
	parseErr := json.Unmarshal(reply.Body, &env)
	if parseErr == nil && env.Code == "" {
		parseErr = errors.New("envelope has no code")
	}

	status := reply.StatusCode
	code := env.Code
	requestID := env.RequestID
	if requestID == "" {
		requestID = reply.Header.Get(scriptapi.HeaderRequestID)
	}

	fail := func(kind *domain.DomainError, cause error) *CallError {
		return &CallError{
			Operation:  op,
			Kind:       kind,
			StatusCode: status,
			ServerCode: code,
			Message:    env.Message,
			RequestID:  requestID,
			Cause:      cause,
		}
	}

	// 1. Rate limited or unavailable.
	if isRetryableStatus(status) || code == scriptapi.CodeRateLimited || code == scriptapi.CodeServiceUnavailable {
		ce := fail(domain.ErrRetryable, nil)
		ce.RetryAfter = parseRetryAfter(reply.Header.Get(scriptapi.HeaderRetryAfter), now)
		return nil, ce
	}

	// 2. Authentication rejected.
	authCode := code == scriptapi.CodeTokenMissing ||
		code == scriptapi.CodeTokenInvalid ||
		code == scriptapi.CodeInvalidCredentials
	if status == http.StatusUnauthorized || authCode {
		if login && code != scriptapi.CodeTokenMissing && code != scriptapi.CodeTokenInvalid {
			return nil, fail(domain.ErrInvalidCredentials, nil)
		}
		return nil, fail(domain.ErrUnauthenticated, nil)
	}

	// 3. Not an envelope.
	if parseErr != nil {
		return nil, fail(domain.ErrProtocol, fmt.Errorf("malformed response (HTTP %d): %w", status, parseErr))
	}

	// 4. Success.
	if code == scriptapi.CodeOK {
		if status < 200 || status > 299 {
			return nil, fail(domain.ErrProtocol, fmt.Errorf("success code with HTTP %d", status))
		}
		return &Response{
			Operation: op,
			RequestID: requestID,
			Message:   env.Message,
			Data:      env.Data,
		}, nil
	}

	// 5. Server faults.
	if status >= 500 || code == scriptapi.CodeInternal {
		return nil, fail(domain.ErrProtocol, domain.NewDomainError(code, env.Message))
	}

	// 6. Application error.
	return nil, fail(domain.ErrRejected, domain.NewDomainError(code, env.Message))
}

func isRetryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	return false
}

// parseRetryAfter accepts delta-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// outcome maps a call result to its metric label.
func outcome(err error) string {
	switch {
	case err == nil:
		return metric.OutcomeOK
	case errors.Is(err, domain.ErrInvalidCredentials):
		return metric.OutcomeInvalidCredentials
	case errors.Is(err, domain.ErrUnauthenticated):
		return metric.OutcomeUnauthenticated
	case errors.Is(err, domain.ErrRetryable):
		return metric.OutcomeRetryable
	case errors.Is(err, domain.ErrUnreachable):
		return metric.OutcomeUnreachable
	case errors.Is(err, domain.ErrRejected):
		return metric.OutcomeRejected
	default:
		return metric.OutcomeProtocol
	}
}
