package benchmark

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/supplier-portal/internal/cli/connection"
	"github.com/yndnr/supplier-portal/internal/core/service"
	"github.com/yndnr/supplier-portal/internal/server/fixture"
	"github.com/yndnr/supplier-portal/internal/server/httpserver"
	"github.com/yndnr/supplier-portal/internal/server/httpserver/handler"
	"github.com/yndnr/supplier-portal/internal/storage"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
)

// TokenCounts defines the issued token counts for benchmarking.
var TokenCounts = []int{1000, 10000, 50000, 100000}

// SmallTokenCounts for quick benchmarks.
var SmallTokenCounts = []int{1000, 5000, 10000}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// issueTokens fills t with count tokens spread over 1000 users.
func issueTokens(b *testing.B, t *handler.Tokens, count int) []string {
	b.Helper()
	out := make([]string, count)
	for i := range out {
		tok, _, err := t.Issue(fmt.Sprintf("user-%d", i%1000))
		if err != nil {
			b.Fatalf("Issue failed: %v", err)
		}
		out[i] = tok
	}
	return out
}

// startMockEndpoint serves the default fixture without rate limiting.
func startMockEndpoint(b *testing.B) string {
	b.Helper()
	store, err := fixture.New(fixture.Default(), fixture.WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		b.Fatalf("fixture.New failed: %v", err)
	}
	reg := metric.NewRegistry()
	metrics := metric.NewServerMetrics(reg)
	h := handler.New(handler.Config{
		Store:   store,
		Tokens:  handler.NewTokens(time.Hour, handler.WithTokenObserver(metrics.SetActiveTokens)),
		Metrics: metrics,
		Logger:  discardLogger(),
	})
	srv := httptest.NewServer(httpserver.NewRouter(&httpserver.RouterConfig{
		Handler:  h,
		Registry: reg,
		Logger:   discardLogger(),
	}))
	b.Cleanup(srv.Close)
	return srv.URL + "/exec"
}

// newClient returns a SessionClient for endpoint backed by kv.
func newClient(b *testing.B, endpoint string, kv storage.KV) *service.SessionClient {
	b.Helper()
	transport, err := connection.NewHTTPClient(endpoint, connection.WithTimeout(5*time.Second))
	if err != nil {
		b.Fatalf("NewHTTPClient failed: %v", err)
	}
	c, err := service.NewSessionClient(service.Options{Transport: transport, Store: kv})
	if err != nil {
		b.Fatalf("NewSessionClient failed: %v", err)
	}
	return c
}

func loggedIn(b *testing.B, c *service.SessionClient) {
	b.Helper()
	if _, err := c.Login(context.Background(), "alice", "correct"); err != nil {
		b.Fatalf("Login failed: %v", err)
	}
}

// reportMemory reports heap usage after a GC.
func reportMemory(b *testing.B, prefix string) {
	var m runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&m)
	b.ReportMetric(float64(m.HeapAlloc)/1024/1024, prefix+"_heap_MB")
}
