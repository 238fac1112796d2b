package tests

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/supplier-portal/internal/cli/command"
	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/server/fixture"
	"github.com/yndnr/supplier-portal/internal/server/httpserver"
	"github.com/yndnr/supplier-portal/internal/server/httpserver/handler"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

type env struct {
	t        *testing.T
	endpoint string
	store    *fixture.Store
	tokens   *handler.Tokens
	home     string
}

// newEnv starts a mock endpoint with the default fixture and points HOME
// at a scratch directory so the CLI uses a fresh ~/.supplier.
func newEnv(t *testing.T) *env {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	store, err := fixture.New(fixture.Default(), fixture.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("fixture.New() error = %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	reg := metric.NewRegistry()
	metrics := metric.NewServerMetrics(reg)
	tokens := handler.NewTokens(time.Hour, handler.WithTokenObserver(metrics.SetActiveTokens))

	h := handler.New(handler.Config{
		Store:   store,
		Tokens:  tokens,
		Metrics: metrics,
		Logger:  logger,
	})
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:     h,
		Registry:    reg,
		Logger:      logger,
		EnableAudit: true,
	}))
	t.Cleanup(srv.Close)

	home := t.TempDir()
	t.Setenv("HOME", home)

	return &env{t: t, endpoint: srv.URL + "/exec", store: store, tokens: tokens, home: home}
}

// cli runs one supplier-cli invocation with its own process-like state.
func (e *env) cli(stdin string, args ...string) (string, error) {
	e.t.Helper()
	var stdout, stderr bytes.Buffer
	app := command.NewApp(
		command.WithOutput(&stdout, &stderr),
		command.WithInput(strings.NewReader(stdin)),
	)
	full := append([]string{command.AppName, "--endpoint", e.endpoint, "--store", "file"}, args...)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := app.RunContext(ctx, full)
	return stdout.String(), err
}

func (e *env) mustCLI(args ...string) string {
	e.t.Helper()
	out, err := e.cli("", args...)
	if err != nil {
		e.t.Fatalf("%v: error = %v", args, err)
	}
	return out
}

// sessionFile returns the session file content, empty when it was removed.
func (e *env) sessionFile() string {
	e.t.Helper()
	data, err := os.ReadFile(filepath.Join(e.home, ".supplier", "session.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return ""
	}
	if err != nil {
		e.t.Fatalf("read session file: %v", err)
	}
	return string(data)
}

func TestCLI_SessionLifecycle(t *testing.T) {
	e := newEnv(t)

	if _, err := e.cli("", "login", "--password", "wrong", "alice"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("bad login error = %v, want ErrInvalidCredentials", err)
	}
	if strings.Contains(e.sessionFile(), scriptapi.TokenPrefix) {
		t.Fatal("session stored after failed login")
	}

	if out := e.mustCLI("login", "--password", "correct", "alice"); !strings.Contains(out, "Logged in as alice") {
		t.Errorf("login output = %q", out)
	}
	if !strings.Contains(e.sessionFile(), scriptapi.TokenPrefix) {
		t.Fatal("session not persisted to the file store")
	}
	if n := e.tokens.Count(); n != 1 {
		t.Errorf("active tokens = %d, want 1", n)
	}

	// Each invocation is a new app reading the persisted session.
	if out := e.mustCLI("whoami"); !strings.Contains(out, "alice") {
		t.Errorf("whoami output:\n%s", out)
	}
	out := e.mustCLI("supplier", "list", "--search", "acme")
	if !strings.Contains(out, "Acme Corp") || strings.Contains(out, "Globex") {
		t.Errorf("supplier list output:\n%s", out)
	}

	if out := e.mustCLI("logout"); !strings.Contains(out, "Logged out") {
		t.Errorf("logout output = %q", out)
	}
	if strings.Contains(e.sessionFile(), scriptapi.TokenPrefix) {
		t.Error("session left in the file store after logout")
	}
	if n := e.tokens.Count(); n != 0 {
		t.Errorf("active tokens after logout = %d, want 0", n)
	}

	_, err := e.cli("", "whoami")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("whoami after logout error = %v, want ErrUnauthenticated", err)
	}
	if code := command.ExitCode(err); code != command.ExitAuth {
		t.Errorf("ExitCode() = %d, want %d", code, command.ExitAuth)
	}
}

func TestCLI_RevokedTokenClearsSession(t *testing.T) {
	e := newEnv(t)
	e.mustCLI("login", "--password", "correct", "alice")

	if n := e.tokens.RevokeUser("alice"); n != 1 {
		t.Fatalf("RevokeUser() = %d, want 1", n)
	}

	_, err := e.cli("", "supplier", "list")
	if !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("error = %v, want ErrUnauthenticated", err)
	}
	if strings.Contains(e.sessionFile(), scriptapi.TokenPrefix) {
		t.Error("rejected session kept in the file store")
	}
}

func TestCLI_SupplierRoundTrip(t *testing.T) {
	e := newEnv(t)
	e.mustCLI("login", "--password", "correct", "alice")

	out := e.mustCLI("-o", "json", "supplier", "add", "--name", "Hooli", "--email", "vendors@hooli.example")
	if !strings.Contains(out, `"name": "Hooli"`) {
		t.Fatalf("add output:\n%s", out)
	}

	added := e.store.ListSuppliers(scriptapi.SupplierQuery{Search: "hooli"})
	if len(added) != 1 {
		t.Fatalf("fixture has %d Hooli suppliers, want 1", len(added))
	}
	id := added[0].ID

	e.mustCLI("supplier", "update", "--contact", "Gavin", id)
	if s, err := e.store.GetSupplier(id); err != nil || s.Contact != "Gavin" {
		t.Errorf("GetSupplier() = %+v, %v", s, err)
	}

	e.mustCLI("supplier", "delete", id)
	_, err := e.cli("", "supplier", "get", id)
	if !errors.Is(err, domain.ErrRejected) || !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("get after delete error = %v, want rejected not-found", err)
	}
	if !strings.Contains(e.sessionFile(), scriptapi.TokenPrefix) {
		t.Error("session cleared by a rejected call")
	}
}

func TestCLI_MaintenanceIsTransient(t *testing.T) {
	e := newEnv(t)
	e.mustCLI("login", "--password", "correct", "alice")

	ds := fixture.Default()
	ds.Maintenance = true
	if err := e.store.Replace(ds); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	_, err := e.cli("", "order", "list")
	if !errors.Is(err, domain.ErrRetryable) {
		t.Fatalf("error = %v, want ErrRetryable", err)
	}
	if code := command.ExitCode(err); code != command.ExitTransient {
		t.Errorf("ExitCode() = %d, want %d", code, command.ExitTransient)
	}
	if !strings.Contains(command.Describe(err), "try again in 30s") {
		t.Errorf("Describe() = %q", command.Describe(err))
	}
	if !strings.Contains(e.sessionFile(), scriptapi.TokenPrefix) {
		t.Error("session cleared during maintenance")
	}
}
