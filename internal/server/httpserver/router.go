package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/supplier-portal/internal/server/httpserver/handler"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Handler serves /exec and /health.
	Handler *handler.Handler

	// Registry is exposed on /metrics. Nil disables the route.
	Registry *prometheus.Registry

	// Logger for request logging.
	Logger *slog.Logger

	// RateLimiter limits /exec per client. Nil disables limiting.
	RateLimiter *RateLimiter

	// CORSAllowedOrigins lists browser origins allowed to call /exec.
	CORSAllowedOrigins []string

	// EnableAudit enables audit logging for /exec.
	EnableAudit bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	// Order: Recover -> RequestID -> CORS -> RateLimit -> Audit -> Handler
	execMiddlewares := []Middleware{
		Recover(logger),
		RequestID(),
		CORS(cfg.CORSAllowedOrigins),
	}
	if cfg.RateLimiter != nil {
		execMiddlewares = append(execMiddlewares, cfg.RateLimiter.Middleware(cfg.Handler.AlwaysOK()))
	}
	if cfg.EnableAudit {
		execMiddlewares = append(execMiddlewares, Audit(logger))
	}
	execHandler := Chain(http.HandlerFunc(cfg.Handler.Exec), execMiddlewares...)

	mux := http.NewServeMux()
	mux.Handle("POST /exec", execHandler)
	mux.Handle("OPTIONS /exec", execHandler)

	// Health endpoint - not rate limited
	mux.Handle("GET /health", Chain(http.HandlerFunc(cfg.Handler.Health), Recover(logger), RequestID()))

	if cfg.Registry != nil {
		mux.Handle("GET /metrics", metric.Handler(cfg.Registry))
	}

	return mux
}
