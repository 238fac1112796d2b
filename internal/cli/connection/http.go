package connection

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/supplier-portal/internal/infra/buildinfo"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// Defaults.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 8 << 20
)

var _ scriptapi.Transport = (*HTTPClient)(nil)

// HTTPClient posts requests to one script endpoint.
type HTTPClient struct {
	endpoint  string
	client    *http.Client
	userAgent string
	maxBody   int64
}

// Option configures an HTTPClient.
type Option func(*HTTPClient)

// WithTimeout bounds each exchange, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.client.Timeout = d
		}
	}
}

// WithTLSConfig sets the TLS configuration of the transport.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(c *HTTPClient) {
		tr := http.DefaultTransport.(*http.Transport).Clone()
		tr.TLSClientConfig = cfg
		c.client.Transport = tr
	}
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		if hc != nil {
			c.client = hc
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *HTTPClient) {
		c.userAgent = ua
	}
}

// WithMaxBodySize limits how many response bytes are read.
func WithMaxBodySize(n int64) Option {
	return func(c *HTTPClient) {
		if n > 0 {
			c.maxBody = n
		}
	}
}

// NewHTTPClient creates a client for endpoint. An endpoint without a
// scheme is assumed to be HTTPS.
func NewHTTPClient(endpoint string, opts ...Option) (*HTTPClient, error) {
	normalized, err := NormalizeEndpoint(endpoint)
	if err != nil {
		return nil, err
	}

	c := &HTTPClient{
		endpoint:  normalized,
		client:    &http.Client{Timeout: DefaultTimeout},
		userAgent: buildinfo.UserAgent("supplier-cli"),
		maxBody:   DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// NormalizeEndpoint validates endpoint and adds https:// when no scheme
// is given.
func NormalizeEndpoint(endpoint string) (string, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return "", fmt.Errorf("connection: endpoint is required")
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "https://" + endpoint
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("connection: invalid endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("connection: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("connection: endpoint %q has no host", endpoint)
	}
	return u.String(), nil
}

// Endpoint returns the normalized endpoint URL.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// Exec posts req and returns the raw reply. A missing RequestID is filled
// with a random UUID. The token, when present, travels both in the body
// and as a bearer Authorization header.
func (c *HTTPClient) Exec(ctx context.Context, req *scriptapi.Request) (*scriptapi.Reply, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("connection: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("connection: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(scriptapi.HeaderRequestID, req.RequestID)
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, &scriptapi.TransportError{Endpoint: c.endpoint, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		if isTimeout(ctx, err) {
			return nil, &scriptapi.TransportError{Endpoint: c.endpoint, Err: err}
		}
		return nil, &scriptapi.BodyError{StatusCode: resp.StatusCode, Err: err}
	}
	if int64(len(data)) > c.maxBody {
		return nil, &scriptapi.BodyError{StatusCode: resp.StatusCode, Err: scriptapi.ErrBodyTooLarge}
	}

	return &scriptapi.Reply{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

// isTimeout reports whether a body read failed because the exchange was
// cut short rather than because the body itself was bad.
func isTimeout(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
