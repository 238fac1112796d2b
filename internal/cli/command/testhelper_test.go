package command

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/storage"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// mockEndpoint is an in-memory script endpoint with one user, alice/correct.
type mockEndpoint struct {
	*httptest.Server

	mu        sync.Mutex
	tokens    map[string]string
	suppliers map[string]domain.Supplier
	seq       int
	actions   []string

	// handlers answer specific actions instead of the defaults.
	handlers map[string]http.HandlerFunc
}

func newMockEndpoint(t *testing.T) *mockEndpoint {
	t.Helper()
	m := &mockEndpoint{
		tokens: make(map[string]string),
		suppliers: map[string]domain.Supplier{
			"s-1": {ID: "s-1", Name: "Acme Corp", Contact: "Wile E.", Status: domain.SupplierActive,
				CreatedAt: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)},
		},
		handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	t.Cleanup(m.Close)
	return m
}

// handle overrides the answer for action.
func (m *mockEndpoint) handle(action string, h http.HandlerFunc) {
	m.mu.Lock()
	m.handlers[action] = h
	m.mu.Unlock()
}

func (m *mockEndpoint) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.actions...)
}

func (m *mockEndpoint) serve(w http.ResponseWriter, r *http.Request) {
	var req scriptapi.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		envelope(w, http.StatusBadRequest, scriptapi.NewErrorResponse("", scriptapi.CodeInvalidArgument, "bad body"))
		return
	}

	m.mu.Lock()
	m.actions = append(m.actions, req.Action)
	h := m.handlers[req.Action]
	m.mu.Unlock()
	if h != nil {
		h(w, r)
		return
	}

	if req.Action == scriptapi.ActionLogin {
		var p scriptapi.LoginPayload
		json.Unmarshal(req.Payload, &p)
		if p.Username != "alice" || p.Password != "correct" {
			envelope(w, http.StatusUnauthorized,
				scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeInvalidCredentials, "invalid username or password"))
			return
		}
		m.mu.Lock()
		m.seq++
		token := fmt.Sprintf("%scmdtest%04d", scriptapi.TokenPrefix, m.seq)
		m.tokens[token] = p.Username
		m.mu.Unlock()
		data(w, req.RequestID, scriptapi.LoginResult{Token: token, Username: p.Username})
		return
	}

	m.mu.Lock()
	user, ok := m.tokens[req.Token]
	m.mu.Unlock()
	if !ok {
		code := scriptapi.CodeTokenInvalid
		if req.Token == "" {
			code = scriptapi.CodeTokenMissing
		}
		envelope(w, http.StatusUnauthorized, scriptapi.NewErrorResponse(req.RequestID, code, "sign in first"))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	switch req.Action {
	case scriptapi.ActionLogout:
		delete(m.tokens, req.Token)
		data(w, req.RequestID, nil)
	case scriptapi.ActionGetProfile:
		data(w, req.RequestID, domain.Profile{Username: user, DisplayName: "Alice Buyer", Role: "buyer"})
	case scriptapi.ActionListSuppliers:
		out := make([]domain.Supplier, 0, len(m.suppliers))
		for _, s := range m.suppliers {
			out = append(out, s)
		}
		data(w, req.RequestID, out)
	case scriptapi.ActionGetSupplier, scriptapi.ActionDeleteSupplier:
		var p scriptapi.IDPayload
		json.Unmarshal(req.Payload, &p)
		s, ok := m.suppliers[p.ID]
		if !ok {
			envelope(w, http.StatusNotFound, scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeNotFound, "supplier not found"))
			return
		}
		if req.Action == scriptapi.ActionDeleteSupplier {
			delete(m.suppliers, p.ID)
			data(w, req.RequestID, nil)
			return
		}
		data(w, req.RequestID, s)
	case scriptapi.ActionAddSupplier, scriptapi.ActionUpdateSupplier:
		var s domain.Supplier
		json.Unmarshal(req.Payload, &s)
		if s.ID == "" {
			m.seq++
			s.ID = fmt.Sprintf("s-%d", m.seq+100)
		}
		m.suppliers[s.ID] = s
		data(w, req.RequestID, s)
	case scriptapi.ActionGetOrders:
		data(w, req.RequestID, []domain.Order{
			{ID: "o-1", SupplierID: "s-1", Item: "anvil", Quantity: 2, Status: domain.OrderShipped},
		})
	default:
		envelope(w, http.StatusBadRequest,
			scriptapi.NewErrorResponse(req.RequestID, scriptapi.CodeInvalidArgument, "unknown action "+req.Action))
	}
}

func envelope(w http.ResponseWriter, status int, resp *scriptapi.Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func data(w http.ResponseWriter, requestID string, v any) {
	resp, err := scriptapi.NewResponse(requestID, v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	envelope(w, http.StatusOK, resp)
}

// harness runs the app against one endpoint and one session store, the
// way successive invocations share ~/.supplier.
type harness struct {
	t          *testing.T
	endpoint   *mockEndpoint
	store      *storage.MemoryStore
	configPath string
	stdin      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return &harness{
		t:          t,
		endpoint:   newMockEndpoint(t),
		store:      storage.NewMemoryStore(),
		configPath: filepath.Join(home, "config.yaml"),
	}
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes one CLI invocation. Global flags select the mock endpoint.
func (h *harness) run(args ...string) result {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	app := NewApp(
		WithStore(h.store),
		WithOutput(&stdout, &stderr),
		WithInput(strings.NewReader(h.stdin)),
	)

	full := append([]string{AppName, "--config", h.configPath, "--endpoint", h.endpoint.URL}, args...)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := app.RunContext(ctx, full)
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	r := h.run(args...)
	if r.err != nil {
		h.t.Fatalf("%v: error = %v\nstderr: %s", args, r.err, r.stderr)
	}
	return r.stdout
}

func (h *harness) login() {
	h.t.Helper()
	h.mustRun("login", "--password", "correct", "alice")
}
