package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

func TestNewSessionClient_Validation(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)

	tests := []struct {
		name string
		opts Options
	}{
		{"no transport", Options{Store: c.store}},
		{"no store", Options{Transport: c.transport}},
		{"negative max age", Options{Transport: c.transport, Store: c.store, MaxAge: -time.Second}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSessionClient(tt.opts); !errors.Is(err, domain.ErrConfigInvalid) {
				t.Errorf("NewSessionClient() error = %v, want ErrConfigInvalid", err)
			}
		})
	}
}

func TestLogin_ValidCredentials(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)
	ctx := testContext(t)

	session, err := c.Login(ctx, "alice", "correct")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Token == "" {
		t.Error("Login() returned empty token")
	}
	if session.Username != "alice" {
		t.Errorf("Username = %q, want alice", session.Username)
	}

	stored, ok := c.CurrentSession(ctx)
	if !ok {
		t.Fatal("CurrentSession() absent after login")
	}
	if !stored.Equal(session) {
		t.Errorf("CurrentSession() = %+v, want %+v", stored, session)
	}
}

func TestLogin_InvalidCredentialsClearsSession(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	ctx := testContext(t)
	seedSession(t, store, "spt_previous", "bob", time.Now())

	_, err := c.Login(ctx, "alice", "wrong")
	wantKind(t, err, domain.ErrInvalidCredentials)
	if !domain.IsAuthError(err) {
		t.Error("IsAuthError() = false for invalid credentials")
	}

	if _, ok := c.CurrentSession(ctx); ok {
		t.Error("CurrentSession() present after failed login")
	}
	if store.Len() != 0 {
		t.Errorf("store holds %d keys, want 0", store.Len())
	}

	// The login request must not carry the previous token.
	if got := f.lastRequest(); got.Token != "" || got.Authorization != "" {
		t.Errorf("login request carried token %q / %q", got.Token, got.Authorization)
	}
}

func TestLogin_InvalidCredentialsWithout401Code(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)

	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("denied"))
		return true
	})

	_, err := c.Login(testContext(t), "alice", "correct")
	wantKind(t, err, domain.ErrInvalidCredentials)
}

func TestLogin_FailuresKeepPriorSession(t *testing.T) {
	tests := []struct {
		name     string
		respond  func(w http.ResponseWriter)
		wantKind *domain.DomainError
	}{
		{
			name: "rate limited",
			respond: func(w http.ResponseWriter) {
				writeEnvelope(w, http.StatusTooManyRequests, scriptapi.NewErrorResponse("", scriptapi.CodeRateLimited, "slow down"))
			},
			wantKind: domain.ErrRetryable,
		},
		{
			name: "malformed",
			respond: func(w http.ResponseWriter) {
				w.Write([]byte("<html>oops</html>"))
			},
			wantKind: domain.ErrProtocol,
		},
		{
			name: "success without token",
			respond: func(w http.ResponseWriter) {
				writeData(w, "", scriptapi.LoginResult{Username: "alice"})
			},
			wantKind: domain.ErrProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeEndpoint(t)
			c, store := newTestClient(t, srv)
			ctx := testContext(t)
			seedSession(t, store, "spt_previous", "bob", time.Now())

			f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
				tt.respond(w)
				return true
			})

			_, err := c.Login(ctx, "alice", "correct")
			wantKind(t, err, tt.wantKind)

			s, ok := c.CurrentSession(ctx)
			if !ok || s.Token != "spt_previous" {
				t.Errorf("CurrentSession() = %+v, %v; want prior session kept", s, ok)
			}
		})
	}
}

func TestLogin_UnreachableKeepsPriorSession(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	srv.Close()
	ctx := testContext(t)
	seedSession(t, store, "spt_previous", "bob", time.Now())

	_, err := c.Login(ctx, "alice", "correct")
	ce := wantKind(t, err, domain.ErrUnreachable)
	if ce.StatusCode != 0 {
		t.Errorf("StatusCode = %d, want 0", ce.StatusCode)
	}
	if !domain.IsTransient(err) {
		t.Error("IsTransient() = false for unreachable")
	}
	if _, ok := c.CurrentSession(ctx); !ok {
		t.Error("prior session should be kept on unreachable")
	}
}

func TestLogin_BlankCredentials(t *testing.T) {
	for _, creds := range [][2]string{{"", "pw"}, {"alice", ""}, {"   ", "pw"}} {
		t.Run(fmt.Sprintf("%q/%q", creds[0], creds[1]), func(t *testing.T) {
			f, srv := newFakeEndpoint(t)
			c, store := newTestClient(t, srv)
			ctx := testContext(t)
			if _, err := c.Login(ctx, "alice", "correct"); err != nil {
				t.Fatalf("Login() error = %v", err)
			}

			_, err := c.Login(ctx, creds[0], creds[1])
			wantKind(t, err, domain.ErrInvalidCredentials)
			if _, ok := c.CurrentSession(ctx); ok {
				t.Error("CurrentSession() present after blank-credential login")
			}
			if store.Len() != 0 {
				t.Errorf("store holds %d keys, want 0", store.Len())
			}
			if n := len(f.actions()); n != 1 {
				t.Errorf("%d requests sent, want only the first login", n)
			}
		})
	}
}

func TestLogin_FailureKeepsConcurrentLogin(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	ctx := testContext(t)
	seedSession(t, store, "spt_old", "alice", time.Now())

	// While the rejected login is in flight, another login stores a new token.
	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		if req.Action != scriptapi.ActionLogin {
			return false
		}
		seedSession(t, store, "spt_fresh", "alice", time.Now())
		writeEnvelope(w, http.StatusUnauthorized,
			scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeInvalidCredentials, "invalid username or password"))
		return true
	})

	_, err := c.Login(ctx, "alice", "wrong")
	wantKind(t, err, domain.ErrInvalidCredentials)

	s, ok := c.CurrentSession(ctx)
	if !ok || s.Token != "spt_fresh" {
		t.Errorf("CurrentSession() = %+v, %v; want fresh session kept", s, ok)
	}
}

func TestLogin_StorageFailure(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv, func(o *Options) { o.Store = failingKV{} })

	_, err := c.Login(testContext(t), "alice", "correct")
	if !errors.Is(err, domain.ErrStorage) || !errors.Is(err, errStoreDown) {
		t.Errorf("Login() error = %v, want ErrStorage wrapping store error", err)
	}
}

func TestLogout(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)
	ctx := testContext(t)

	if _, err := c.Login(ctx, "alice", "correct"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := c.CurrentSession(ctx); ok {
		t.Error("CurrentSession() present after logout")
	}

	// Idempotent.
	if err := c.Logout(ctx); err != nil {
		t.Errorf("second Logout() error = %v", err)
	}
}

func TestLogout_RevokeOnLogout(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv, func(o *Options) { o.RevokeOnLogout = true })
	ctx := testContext(t)

	session, err := c.Login(ctx, "alice", "correct")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	last := f.lastRequest()
	if last.Action != scriptapi.ActionLogout || last.Token != session.Token {
		t.Errorf("last request = %s with token %q, want logout with %q", last.Action, last.Token, session.Token)
	}

	// Logged out with nothing stored: no remote call.
	before := len(f.actions())
	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if len(f.actions()) != before {
		t.Error("Logout() without a session should not call the endpoint")
	}
}

func TestLogout_RemoteFailureStillClears(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv, func(o *Options) { o.RevokeOnLogout = true })
	ctx := testContext(t)

	if _, err := c.Login(ctx, "alice", "correct"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		writeEnvelope(w, http.StatusServiceUnavailable, scriptapi.NewErrorResponse("", scriptapi.CodeServiceUnavailable, "maintenance"))
		return true
	})

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := c.CurrentSession(ctx); ok {
		t.Error("session should be cleared even when remote logout fails")
	}
}

func TestLogout_StorageFailure(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv, func(o *Options) { o.Store = failingKV{} })

	if err := c.Logout(testContext(t)); !errors.Is(err, domain.ErrStorage) {
		t.Errorf("Logout() error = %v, want ErrStorage", err)
	}
}

func TestCall_NoSessionAttachesNoToken(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)

	_, err := c.Call(testContext(t), scriptapi.ActionGetOrders, map[string]any{})
	ce := wantKind(t, err, domain.ErrUnauthenticated)
	if ce.ServerCode != scriptapi.CodeTokenMissing {
		t.Errorf("ServerCode = %q, want %s", ce.ServerCode, scriptapi.CodeTokenMissing)
	}

	last := f.lastRequest()
	if last.Token != "" || last.Authorization != "" {
		t.Errorf("request carried token %q / %q", last.Token, last.Authorization)
	}
}

func TestCall_AuthRejectionClearsSession(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	ctx := testContext(t)
	seedSession(t, store, "spt_revoked", "alice", time.Now())

	_, err := c.Call(ctx, scriptapi.ActionGetProfile, nil)
	wantKind(t, err, domain.ErrUnauthenticated)

	if got := f.lastRequest(); got.Token != "spt_revoked" || got.Authorization != "Bearer spt_revoked" {
		t.Errorf("request token = %q / %q", got.Token, got.Authorization)
	}
	if _, ok := c.CurrentSession(ctx); ok {
		t.Error("session should be cleared after auth rejection")
	}
}

func TestCall_AuthRejectionOn200Envelope(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	ctx := testContext(t)
	seedSession(t, store, "spt_stale", "alice", time.Now())

	// Script hosts often answer 200 with an error envelope.
	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		writeEnvelope(w, http.StatusOK, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeTokenInvalid, "expired"))
		return true
	})

	_, err := c.Call(ctx, scriptapi.ActionGetOrders, nil)
	wantKind(t, err, domain.ErrUnauthenticated)
	if _, ok := c.CurrentSession(ctx); ok {
		t.Error("session should be cleared after auth rejection")
	}
}

func TestCall_AuthRejectionKeepsNewerSession(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	ctx := testContext(t)
	seedSession(t, store, "spt_old", "alice", time.Now())

	// While the rejected call is in flight, a re-login stores a new token.
	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		if req.Token != "spt_old" {
			return false
		}
		seedSession(t, store, "spt_fresh", "alice", time.Now())
		writeEnvelope(w, http.StatusUnauthorized, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeTokenInvalid, "expired"))
		return true
	})

	_, err := c.Call(ctx, scriptapi.ActionGetOrders, nil)
	wantKind(t, err, domain.ErrUnauthenticated)

	s, ok := c.CurrentSession(ctx)
	if !ok || s.Token != "spt_fresh" {
		t.Errorf("CurrentSession() = %+v, %v; want fresh session kept", s, ok)
	}
}

func TestCall_NonAuthFailuresKeepSession(t *testing.T) {
	tests := []struct {
		name     string
		respond  func(w http.ResponseWriter, req *scriptapi.Request)
		wantKind *domain.DomainError
	}{
		{
			name: "rate limited",
			respond: func(w http.ResponseWriter, req *scriptapi.Request) {
				w.Header().Set(scriptapi.HeaderRetryAfter, "5")
				writeEnvelope(w, http.StatusTooManyRequests, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeRateLimited, "slow down"))
			},
			wantKind: domain.ErrRetryable,
		},
		{
			name: "maintenance on 200",
			respond: func(w http.ResponseWriter, req *scriptapi.Request) {
				writeEnvelope(w, http.StatusOK, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeServiceUnavailable, "maintenance"))
			},
			wantKind: domain.ErrRetryable,
		},
		{
			name: "html error page",
			respond: func(w http.ResponseWriter, req *scriptapi.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.Write([]byte("<html>Service error</html>"))
			},
			wantKind: domain.ErrProtocol,
		},
		{
			name: "internal error",
			respond: func(w http.ResponseWriter, req *scriptapi.Request) {
				writeEnvelope(w, http.StatusInternalServerError, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeInternal, "boom"))
			},
			wantKind: domain.ErrProtocol,
		},
		{
			name: "application error",
			respond: func(w http.ResponseWriter, req *scriptapi.Request) {
				writeEnvelope(w, http.StatusBadRequest, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeInvalidArgument, "bad filter"))
			},
			wantKind: domain.ErrRejected,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, srv := newFakeEndpoint(t)
			c, store := newTestClient(t, srv)
			ctx := testContext(t)
			seedSession(t, store, "spt_valid", "alice", time.Now())

			f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
				tt.respond(w, req)
				return true
			})

			_, err := c.Call(ctx, scriptapi.ActionGetOrders, nil)
			wantKind(t, err, tt.wantKind)

			if _, ok := c.CurrentSession(ctx); !ok {
				t.Error("session should be untouched")
			}
		})
	}
}

func TestCall_RetryAfterExposed(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)

	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		w.Header().Set(scriptapi.HeaderRetryAfter, "7")
		writeEnvelope(w, http.StatusTooManyRequests, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeRateLimited, "slow down"))
		return true
	})

	_, err := c.Call(testContext(t), scriptapi.ActionGetOrders, nil)
	ce := wantKind(t, err, domain.ErrRetryable)
	if ce.RetryAfter != 7*time.Second {
		t.Errorf("RetryAfter = %v, want 7s", ce.RetryAfter)
	}
	if ce.StatusCode != http.StatusTooManyRequests {
		t.Errorf("StatusCode = %d", ce.StatusCode)
	}
	if !strings.Contains(ce.Error(), "retry after 7s") {
		t.Errorf("Error() = %q", ce.Error())
	}

	// Exactly one request: no automatic retry.
	if n := len(f.actions()); n != 1 {
		t.Errorf("%d requests sent, want 1", n)
	}
}

func TestCall_Canceled(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	seedSession(t, store, "spt_valid", "alice", time.Now())

	release := make(chan struct{})
	defer close(release)
	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		<-release
		return true
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := c.Call(ctx, scriptapi.ActionGetOrders, nil)
	wantKind(t, err, domain.ErrUnreachable)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want to wrap context.Canceled", err)
	}
	if _, ok := c.CurrentSession(context.Background()); !ok {
		t.Error("session should be untouched after cancellation")
	}
}

func TestCall_Payloads(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv)
	ctx := testContext(t)
	seedSession(t, store, "spt_valid", "alice", time.Now())
	f.tokens["spt_valid"] = "alice"

	tests := []struct {
		name    string
		payload any
		want    string
		wantErr bool
	}{
		{"nil", nil, "", false},
		{"struct", scriptapi.OrderQuery{Status: "pending"}, `{"status":"pending"}`, false},
		{"raw", json.RawMessage(`{"id":"s-1"}`), `{"id":"s-1"}`, false},
		{"bytes", []byte(`{"a":1}`), `{"a":1}`, false},
		{"invalid raw", json.RawMessage(`{`), "", true},
		{"unmarshalable", make(chan int), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Call(ctx, scriptapi.ActionGetOrders, tt.payload)
			if tt.wantErr {
				if !errors.Is(err, domain.ErrInvalidArgument) {
					t.Fatalf("Call() error = %v, want ErrInvalidArgument", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Call() error = %v", err)
			}
			if got := string(f.lastRequest().Payload); got != tt.want {
				t.Errorf("payload = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := c.Call(ctx, "  ", nil); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("Call(empty op) error = %v, want ErrInvalidArgument", err)
	}
}

func TestCurrentSession_InvalidStates(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		values map[string]string
		maxAge time.Duration
		want   bool
	}{
		{"empty", map[string]string{}, 0, false},
		{"token only", map[string]string{"test.session.token": "spt_x"}, 0, false},
		{"no username", map[string]string{
			"test.session.token":     "spt_x",
			"test.session.issued_at": now.Format(time.RFC3339Nano),
		}, 0, false},
		{"bad issued_at", map[string]string{
			"test.session.token":     "spt_x",
			"test.session.username":  "alice",
			"test.session.issued_at": "yesterday",
		}, 0, false},
		{"complete", map[string]string{
			"test.session.token":     "spt_x",
			"test.session.username":  "alice",
			"test.session.issued_at": now.Add(-time.Hour).Format(time.RFC3339Nano),
		}, 0, true},
		{"within max age", map[string]string{
			"test.session.token":     "spt_x",
			"test.session.username":  "alice",
			"test.session.issued_at": now.Add(-time.Hour).Format(time.RFC3339Nano),
		}, 2 * time.Hour, true},
		{"expired", map[string]string{
			"test.session.token":     "spt_x",
			"test.session.username":  "alice",
			"test.session.issued_at": now.Add(-3 * time.Hour).Format(time.RFC3339Nano),
		}, 2 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newFakeEndpoint(t)
			c, store := newTestClient(t, srv, func(o *Options) {
				o.MaxAge = tt.maxAge
				o.Now = func() time.Time { return now }
			})
			if len(tt.values) > 0 {
				store.Put(context.Background(), tt.values)
			}

			_, ok := c.CurrentSession(context.Background())
			if ok != tt.want {
				t.Errorf("CurrentSession() ok = %v, want %v", ok, tt.want)
			}
			// Reading never mutates storage.
			if store.Len() != len(tt.values) {
				t.Errorf("store holds %d keys, want %d", store.Len(), len(tt.values))
			}
		})
	}
}

func TestCurrentSession_StoreFailure(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv, func(o *Options) { o.Store = failingKV{} })

	if _, ok := c.CurrentSession(context.Background()); ok {
		t.Error("CurrentSession() should be absent when the store fails")
	}
}

func TestCall_ExpiredSessionAttachesNoToken(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, store := newTestClient(t, srv, func(o *Options) { o.MaxAge = time.Hour })
	seedSession(t, store, "spt_old", "alice", time.Now().Add(-2*time.Hour))

	_, err := c.Call(testContext(t), scriptapi.ActionGetOrders, nil)
	wantKind(t, err, domain.ErrUnauthenticated)
	if tok := f.lastRequest().Token; tok != "" {
		t.Errorf("request token = %q, want none", tok)
	}
}

func TestScenario_LoginCallLogout(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)
	ctx := testContext(t)

	session, err := c.Login(ctx, "alice", "correct")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if session.Username != "alice" || session.Token == "" {
		t.Fatalf("Login() = %+v", session)
	}

	resp, err := c.Call(ctx, scriptapi.ActionGetOrders, map[string]any{})
	if err != nil {
		t.Fatalf("Call(getOrders) error = %v", err)
	}
	if got := f.lastRequest(); got.Token != session.Token {
		t.Errorf("getOrders token = %q, want %q", got.Token, session.Token)
	}
	var orders []domain.Order
	if err := resp.Decode(&orders); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(orders) != 2 {
		t.Errorf("len(orders) = %d, want 2", len(orders))
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, ok := c.CurrentSession(ctx); ok {
		t.Fatal("CurrentSession() present after logout")
	}

	_, err = c.Call(ctx, scriptapi.ActionGetOrders, map[string]any{})
	wantKind(t, err, domain.ErrUnauthenticated)
}

func TestSessionClient_Metrics(t *testing.T) {
	f, srv := newFakeEndpoint(t)
	reg := prometheus.NewRegistry()
	m := metric.NewClientMetrics(reg)
	c, _ := newTestClient(t, srv, func(o *Options) { o.Metrics = m })
	ctx := testContext(t)

	c.Login(ctx, "alice", "correct")
	c.Login(ctx, "alice", "wrong")
	c.Login(ctx, "alice", "correct")
	c.Call(ctx, scriptapi.ActionGetOrders, nil)
	f.setOverride(func(w http.ResponseWriter, req *scriptapi.Request) bool {
		writeEnvelope(w, http.StatusUnauthorized, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeTokenInvalid, "expired"))
		return true
	})
	c.Call(ctx, scriptapi.ActionGetOrders, nil)

	expected := `
# HELP supplier_client_session_clears_total Times the stored session was cleared, by reason.
# TYPE supplier_client_session_clears_total counter
supplier_client_session_clears_total{reason="auth_rejected"} 1
supplier_client_session_clears_total{reason="login_failed"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "supplier_client_session_clears_total"); err != nil {
		t.Error(err)
	}

	expectedCalls := `
# HELP supplier_client_calls_total Remote calls by operation and classified outcome.
# TYPE supplier_client_calls_total counter
supplier_client_calls_total{operation="getOrders",outcome="ok"} 1
supplier_client_calls_total{operation="getOrders",outcome="unauthenticated"} 1
supplier_client_calls_total{operation="login",outcome="invalid_credentials"} 1
supplier_client_calls_total{operation="login",outcome="ok"} 2
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expectedCalls), "supplier_client_calls_total"); err != nil {
		t.Error(err)
	}
}

func TestSessionClient_ConcurrentUse(t *testing.T) {
	_, srv := newFakeEndpoint(t)
	c, _ := newTestClient(t, srv)
	ctx := testContext(t)

	if _, err := c.Login(ctx, "alice", "correct"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := c.Call(ctx, scriptapi.ActionGetOrders, nil); err != nil {
				t.Errorf("Call() error = %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if s, ok := c.CurrentSession(ctx); ok && (s.Token == "" || s.Username == "") {
				t.Errorf("CurrentSession() returned partial session %+v", s)
			}
		}()
	}
	wg.Wait()
}
