package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/storage"
	"github.com/yndnr/supplier-portal/internal/telemetry/logger"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// fakeEndpoint is a minimal script endpoint for exercising SessionClient.
type fakeEndpoint struct {
	t *testing.T

	mu       sync.Mutex
	tokens   map[string]string // token -> username
	seq      int
	requests []recordedRequest

	// override, when set, may answer a request itself by returning true.
	override func(w http.ResponseWriter, req *scriptapi.Request) bool
}

type recordedRequest struct {
	scriptapi.Request
	Authorization string
}

func newFakeEndpoint(t *testing.T) (*fakeEndpoint, *httptest.Server) {
	t.Helper()
	f := &fakeEndpoint{t: t, tokens: make(map[string]string)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeEndpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req scriptapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, scriptapi.NewErrorResponse("", scriptapi.CodeInvalidArgument, "bad body"))
		return
	}

	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Request: req, Authorization: r.Header.Get("Authorization")})
	override := f.override
	f.mu.Unlock()

	if override != nil && override(w, &req) {
		return
	}

	switch req.Action {
	case scriptapi.ActionLogin:
		var p scriptapi.LoginPayload
		json.Unmarshal(req.Payload, &p)
		if p.Username != "alice" || p.Password != "correct" {
			writeEnvelope(w, http.StatusUnauthorized,
				scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeInvalidCredentials, "invalid username or password"))
			return
		}
		f.mu.Lock()
		f.seq++
		token := fmt.Sprintf("%stoken-%d", scriptapi.TokenPrefix, f.seq)
		f.tokens[token] = p.Username
		f.mu.Unlock()
		writeData(w, req.RequestID, scriptapi.LoginResult{Token: token, Username: p.Username})
		return

	case scriptapi.ActionLogout:
		f.mu.Lock()
		delete(f.tokens, req.Token)
		f.mu.Unlock()
		writeData(w, req.RequestID, nil)
		return
	}

	if req.Token == "" {
		writeEnvelope(w, http.StatusUnauthorized,
			scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeTokenMissing, "token required"))
		return
	}
	f.mu.Lock()
	user, ok := f.tokens[req.Token]
	f.mu.Unlock()
	if !ok {
		writeEnvelope(w, http.StatusUnauthorized,
			scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeTokenInvalid, "token invalid or expired"))
		return
	}

	switch req.Action {
	case scriptapi.ActionGetProfile:
		writeData(w, req.RequestID, domain.Profile{Username: user, DisplayName: "Alice", Role: "buyer"})
	case scriptapi.ActionGetOrders:
		writeData(w, req.RequestID, []domain.Order{
			{ID: "o-1", SupplierID: "s-1", Item: "bolts", Quantity: 100, Status: domain.OrderPending},
			{ID: "o-2", SupplierID: "s-2", Item: "nuts", Quantity: 50, Status: domain.OrderShipped},
		})
	case scriptapi.ActionListSuppliers:
		writeData(w, req.RequestID, []domain.Supplier{{ID: "s-1", Name: "Acme", Status: domain.SupplierActive}})
	case scriptapi.ActionGetSupplier:
		var p scriptapi.IDPayload
		json.Unmarshal(req.Payload, &p)
		if p.ID != "s-1" {
			writeEnvelope(w, http.StatusNotFound,
				scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeNotFound, "supplier not found"))
			return
		}
		writeData(w, req.RequestID, domain.Supplier{ID: "s-1", Name: "Acme", Status: domain.SupplierActive})
	case scriptapi.ActionAddSupplier, scriptapi.ActionUpdateSupplier:
		var s domain.Supplier
		json.Unmarshal(req.Payload, &s)
		if s.ID == "" {
			s.ID = "s-new"
		}
		writeData(w, req.RequestID, s)
	case scriptapi.ActionDeleteSupplier:
		writeData(w, req.RequestID, nil)
	default:
		writeEnvelope(w, http.StatusNotFound,
			scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeNotFound, "unknown action"))
	}
}

func (f *fakeEndpoint) setOverride(fn func(w http.ResponseWriter, req *scriptapi.Request) bool) {
	f.mu.Lock()
	f.override = fn
	f.mu.Unlock()
}

func (f *fakeEndpoint) lastRequest() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		f.t.Fatal("no request recorded")
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeEndpoint) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Action
	}
	return out
}

func writeEnvelope(w http.ResponseWriter, status int, resp *scriptapi.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeData(w http.ResponseWriter, requestID string, data any) {
	resp, err := scriptapi.NewResponse(requestID, data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeEnvelope(w, http.StatusOK, resp)
}

// newTestClient wires a SessionClient to srv with a memory store.
func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*Options)) (*SessionClient, *storage.MemoryStore) {
	t.Helper()

	transport := &httpTransport{url: srv.URL, client: srv.Client()}
	store := storage.NewMemoryStore()
	opts := Options{
		Transport: transport,
		Store:     store,
		Namespace: "test",
		Logger:    logger.Nop(),
	}
	for _, m := range mutate {
		m(&opts)
	}

	c, err := NewSessionClient(opts)
	if err != nil {
		t.Fatalf("NewSessionClient() error = %v", err)
	}
	return c, store
}

// httpTransport posts envelopes to a test server the way the CLI's
// connection does: token in the body and as a bearer header.
var transportSeq atomic.Int64

type httpTransport struct {
	url    string
	client *http.Client
}

func (h *httpTransport) Exec(ctx context.Context, req *scriptapi.Request) (*scriptapi.Reply, error) {
	if req.RequestID == "" {
		req.RequestID = fmt.Sprintf("test-%d", transportSeq.Add(1))
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set(scriptapi.HeaderRequestID, req.RequestID)
	if req.Token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	}

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, &scriptapi.TransportError{Endpoint: h.url, Err: err}
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &scriptapi.BodyError{StatusCode: resp.StatusCode, Err: err}
	}
	return &scriptapi.Reply{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

// seedSession writes a session straight into the store.
func seedSession(t *testing.T, store storage.KV, token, username string, issuedAt time.Time) {
	t.Helper()
	err := store.Put(context.Background(), map[string]string{
		"test.session.token":     token,
		"test.session.username":  username,
		"test.session.issued_at": issuedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// failingKV fails every operation.
type failingKV struct{}

var errStoreDown = errors.New("store down")

func (failingKV) Get(context.Context, ...string) (map[string]string, error) { return nil, errStoreDown }
func (failingKV) Put(context.Context, map[string]string) error              { return errStoreDown }
func (failingKV) Delete(context.Context, ...string) error                   { return errStoreDown }
func (failingKV) Close() error                                              { return nil }

// wantKind asserts err is a *CallError of the given kind.
func wantKind(t *testing.T, err error, kind *domain.DomainError) *CallError {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("error = %v, want kind %s", err, kind.Code)
	}
	ce, ok := AsCallError(err)
	if !ok {
		t.Fatalf("error = %T, want *CallError", err)
	}
	return ce
}
