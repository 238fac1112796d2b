package scriptapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrBodyTooLarge is returned when a response exceeds the body limit.
var ErrBodyTooLarge = errors.New("scriptapi: response body too large")

// Reply is a raw endpoint response, before the envelope is interpreted.
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Transport sends one request envelope and returns the raw reply.
type Transport interface {
	Exec(ctx context.Context, req *Request) (*Reply, error)
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("post %s: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// BodyError means a response arrived but its body could not be read.
type BodyError struct {
	StatusCode int
	Err        error
}

func (e *BodyError) Error() string {
	return fmt.Sprintf("read response body (status %d): %v", e.StatusCode, e.Err)
}

func (e *BodyError) Unwrap() error { return e.Err }
