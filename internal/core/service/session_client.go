package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/storage"
	"github.com/yndnr/supplier-portal/internal/telemetry/logger"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// DefaultNamespace prefixes the session keys when none is configured.
const DefaultNamespace = "supplier"

// Transport sends one request envelope and returns the raw reply.
type Transport = scriptapi.Transport

// Options configures a SessionClient.
type Options struct {
	// Transport reaches the remote endpoint. Required.
	Transport Transport

	// Store persists the session. Required.
	Store storage.KV

	// Namespace prefixes the session keys. Default: DefaultNamespace.
	Namespace string

	// MaxAge reports sessions older than this as absent. 0 disables.
	MaxAge time.Duration

	// RevokeOnLogout sends a best-effort logout action before clearing.
	RevokeOnLogout bool

	Logger  logger.Logger
	Metrics *metric.ClientMetrics

	// Now overrides the clock. Default: time.Now.
	Now func() time.Time
}

// SessionClient manages the authenticated session against the script
// endpoint and performs calls on its behalf.
type SessionClient struct {
	transport      Transport
	store          storage.KV
	keys           sessionKeys
	maxAge         time.Duration
	revokeOnLogout bool
	log            logger.Logger
	metrics        *metric.ClientMetrics
	now            func() time.Time

	// mu orders session writes against reads; the store makes each
	// write atomic, mu makes compare-and-clear atomic.
	mu sync.RWMutex
}

type sessionKeys struct {
	token    string
	username string
	issuedAt string
}

func (k sessionKeys) all() []string {
	return []string{k.token, k.username, k.issuedAt}
}

// NewSessionClient creates a SessionClient.
func NewSessionClient(opts Options) (*SessionClient, error) {
	if opts.Transport == nil {
		return nil, domain.ErrConfigInvalid.WithDetails("transport is required")
	}
	if opts.Store == nil {
		return nil, domain.ErrConfigInvalid.WithDetails("store is required")
	}
	if opts.MaxAge < 0 {
		return nil, domain.ErrConfigInvalid.WithDetails("max age must not be negative")
	}

	ns := strings.TrimSuffix(opts.Namespace, ".")
	if ns == "" {
		ns = DefaultNamespace
	}
	log := opts.Logger
	if log == nil {
		log = logger.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &SessionClient{
		transport: opts.Transport,
		store:     opts.Store,
		keys: sessionKeys{
			token:    ns + ".session.token",
			username: ns + ".session.username",
			issuedAt: ns + ".session.issued_at",
		},
		maxAge:         opts.MaxAge,
		revokeOnLogout: opts.RevokeOnLogout,
		log:            log.With("component", "session_client"),
		metrics:        opts.Metrics,
		now:            now,
	}, nil
}

// ============================================================================
// Session lifecycle
// ============================================================================

// Login authenticates with the endpoint and stores the resulting session.
//
// Rejected credentials, including a blank username or password, return
// domain.ErrInvalidCredentials and clear the session that was stored when
// Login began. A session stored by a concurrent Login is kept. Other
// failures leave the stored session as it was.
func (c *SessionClient) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	prior := c.storedToken(ctx)

	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		c.dropFailedLogin(ctx, prior)
		return nil, domain.ErrInvalidCredentials.WithDetails("username and password are required")
	}

	payload, err := json.Marshal(scriptapi.LoginPayload{Username: username, Password: password})
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithCause(err)
	}

	resp, err := c.exchange(ctx, scriptapi.ActionLogin, "", payload, true)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			c.dropFailedLogin(ctx, prior)
		}
		return nil, err
	}

	var result scriptapi.LoginResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if result.Username == "" {
		result.Username = username
	}

	session, err := domain.NewSession(result.Token, result.Username, c.now())
	if err != nil {
		return nil, &CallError{
			Operation: scriptapi.ActionLogin,
			Kind:      domain.ErrProtocol,
			RequestID: resp.RequestID,
			Cause:     err,
		}
	}

	c.mu.Lock()
	err = c.store.Put(ctx, c.encode(session))
	c.mu.Unlock()
	if err != nil {
		return nil, domain.ErrStorage.WithDetails("store session").WithCause(err)
	}

	c.log.Info("logged in", "username", session.Username, "request_id", resp.RequestID)
	return session.Clone(), nil
}

// CurrentSession returns the stored session.
//
// It reports false when nothing is stored, when the stored data is
// partial or invalid, when the session is older than MaxAge, or when the
// store cannot be read (the failure is logged).
func (c *SessionClient) CurrentSession(ctx context.Context) (*domain.Session, bool) {
	c.mu.RLock()
	values, err := c.store.Get(ctx, c.keys.all()...)
	c.mu.RUnlock()
	if err != nil {
		c.log.Warn("read session", "error", err)
		return nil, false
	}

	session, err := c.decode(values)
	if err != nil {
		c.log.Debug("stored session ignored", "error", err)
		return nil, false
	}
	if session == nil {
		return nil, false
	}
	if session.IsExpired(c.maxAge, c.now()) {
		c.log.Debug("stored session expired", "age", session.Age(c.now()).Round(time.Second))
		return nil, false
	}
	return session, true
}

// Logout clears the stored session. It is idempotent.
//
// With RevokeOnLogout the token is first sent to the endpoint's logout
// action; that outcome is logged and never prevents the local clear.
func (c *SessionClient) Logout(ctx context.Context) error {
	if c.revokeOnLogout {
		c.revoke(ctx)
	}
	if err := c.clear(ctx, metric.ClearLogout); err != nil {
		return domain.ErrStorage.WithDetails("clear session").WithCause(err)
	}
	return nil
}

// dropFailedLogin clears the session that was stored before a rejected
// login, if it is still the stored one.
func (c *SessionClient) dropFailedLogin(ctx context.Context, prior string) {
	if _, err := c.clearIfToken(ctx, prior, metric.ClearLoginFailed); err != nil {
		c.log.Warn("clear session after failed login", "error", err)
	}
}

// storedToken returns the stored token, expired or not, or "" when none
// is stored or the store cannot be read.
func (c *SessionClient) storedToken(ctx context.Context) string {
	c.mu.RLock()
	values, err := c.store.Get(ctx, c.keys.token)
	c.mu.RUnlock()
	if err != nil {
		return ""
	}
	return values[c.keys.token]
}

// revoke sends the stored token (expired or not) to the logout action.
func (c *SessionClient) revoke(ctx context.Context) {
	token := c.storedToken(ctx)
	if token == "" {
		return
	}

	if _, err := c.exchange(ctx, scriptapi.ActionLogout, token, nil, false); err != nil {
		c.log.Warn("remote logout failed", "error", err)
		return
	}
	c.log.Debug("remote logout succeeded")
}

// ============================================================================
// Calls
// ============================================================================

// Call performs op with payload, attaching the current session token if
// there is one.
//
// payload may be nil, a json.RawMessage, or any JSON-marshalable value.
// An authentication rejection clears the session whose token was sent.
func (c *SessionClient) Call(ctx context.Context, op string, payload any) (*Response, error) {
	op = strings.TrimSpace(op)
	if op == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("operation is required")
	}

	raw, err := marshalPayload(payload)
	if err != nil {
		return nil, domain.ErrInvalidArgument.WithDetails("payload is not valid JSON").WithCause(err)
	}

	var token string
	if session, ok := c.CurrentSession(ctx); ok {
		token = session.Token
	}

	resp, err := c.exchange(ctx, op, token, raw, false)
	if err != nil && token != "" && errors.Is(err, domain.ErrUnauthenticated) {
		if cleared, cerr := c.clearIfToken(ctx, token, metric.ClearAuthRejected); cerr != nil {
			c.log.Warn("clear rejected session", "error", cerr)
		} else if cleared {
			c.log.Info("session cleared after auth rejection", "operation", op)
		}
	}
	return resp, err
}

// exchange sends one request and classifies the reply.
func (c *SessionClient) exchange(ctx context.Context, op, token string, payload json.RawMessage, login bool) (*Response, error) {
	req := &scriptapi.Request{
		Action:  op,
		Token:   token,
		Payload: payload,
	}

	start := c.now()
	reply, err := c.transport.Exec(ctx, req)

	var (
		resp *Response
		ce   *CallError
	)
	if err != nil {
		ce = transportFailure(op, req.RequestID, err)
	} else {
		resp, ce = classify(op, login, reply, c.now())
	}
	elapsed := c.now().Sub(start)

	if ce != nil {
		c.metrics.ObserveCall(op, outcome(ce), elapsed)
		c.log.Debug("call failed",
			"operation", op,
			"request_id", ce.RequestID,
			"status", ce.StatusCode,
			"code", ce.ServerCode,
			"kind", ce.Kind.Code,
			"elapsed", elapsed)
		return nil, ce
	}

	c.metrics.ObserveCall(op, metric.OutcomeOK, elapsed)
	c.log.Debug("call succeeded", "operation", op, "request_id", resp.RequestID, "elapsed", elapsed)
	return resp, nil
}

func marshalPayload(payload any) (json.RawMessage, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		if len(p) == 0 {
			return nil, nil
		}
		if !json.Valid(p) {
			return nil, errors.New("invalid raw JSON")
		}
		return p, nil
	case []byte:
		if len(p) == 0 {
			return nil, nil
		}
		if !json.Valid(p) {
			return nil, errors.New("invalid raw JSON")
		}
		return json.RawMessage(p), nil
	default:
		return json.Marshal(p)
	}
}

// ============================================================================
// Persistence
// ============================================================================

// clear removes the session unconditionally.
func (c *SessionClient) clear(ctx context.Context, reason string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Delete(ctx, c.keys.all()...); err != nil {
		return err
	}
	c.metrics.SessionCleared(reason)
	return nil
}

// clearIfToken removes the session only if it still holds token, so a
// concurrent re-login is not wiped by a stale rejection. An empty token
// matches partial state without a token, never a full session.
func (c *SessionClient) clearIfToken(ctx context.Context, token, reason string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	values, err := c.store.Get(ctx, c.keys.all()...)
	if err != nil {
		return false, err
	}
	if len(values) == 0 || values[c.keys.token] != token {
		return false, nil
	}
	if err := c.store.Delete(ctx, c.keys.all()...); err != nil {
		return false, err
	}
	c.metrics.SessionCleared(reason)
	return true, nil
}

func (c *SessionClient) encode(s *domain.Session) map[string]string {
	return map[string]string{
		c.keys.token:    s.Token,
		c.keys.username: s.Username,
		c.keys.issuedAt: s.IssuedAt.UTC().Format(time.RFC3339Nano),
	}
}

// decode rebuilds a session from stored values. Nothing stored yields
// (nil, nil); partial or invalid state yields an error.
func (c *SessionClient) decode(values map[string]string) (*domain.Session, error) {
	if len(values) == 0 {
		return nil, nil
	}

	issuedAt, err := time.Parse(time.RFC3339Nano, values[c.keys.issuedAt])
	if err != nil {
		return nil, domain.ErrSessionInvalid.WithDetails(fmt.Sprintf("issued_at: %v", err))
	}
	s := &domain.Session{
		Token:    values[c.keys.token],
		Username: values[c.keys.username],
		IssuedAt: issuedAt,
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
