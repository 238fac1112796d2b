package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/supplier-portal/internal/infra/buildinfo"
	"github.com/yndnr/supplier-portal/internal/infra/shutdown"
	"github.com/yndnr/supplier-portal/internal/infra/tlsroots"
	"github.com/yndnr/supplier-portal/internal/server/config"
	"github.com/yndnr/supplier-portal/internal/server/fixture"
	"github.com/yndnr/supplier-portal/internal/server/httpserver"
	"github.com/yndnr/supplier-portal/internal/server/httpserver/handler"
	"github.com/yndnr/supplier-portal/internal/telemetry/logger"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
)

const appName = "supplier-mockd"

func main() {
	app := &cli.App{
		Name:    appName,
		Usage:   "Local mock of the supplier management script endpoint",
		Version: buildinfo.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file",
				EnvVars: []string{"SUPPLIER_MOCK_CONFIG"},
			},
			&cli.StringFlag{Name: "addr", Usage: "listen address (host:port)"},
			&cli.StringFlag{Name: "fixture", Usage: "YAML fixture file (default: built-in dataset)"},
			&cli.BoolFlag{Name: "watch", Usage: "reload the fixture when it changes"},
			&cli.BoolFlag{Name: "always-ok", Usage: "answer HTTP 200 and report errors only in the envelope"},
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// flagOverrides maps the flags that were set to config keys.
func flagOverrides(c *cli.Context) map[string]any {
	flags := make(map[string]any)
	if c.IsSet("addr") {
		flags["server.http.addr"] = c.String("addr")
	}
	if c.IsSet("fixture") {
		flags["fixture.path"] = c.String("fixture")
	}
	if c.IsSet("watch") {
		flags["fixture.watch"] = c.Bool("watch")
	}
	if c.IsSet("always-ok") {
		flags["server.http.always_ok"] = c.Bool("always-ok")
	}
	if c.IsSet("log-level") {
		flags["log.level"] = c.String("log-level")
	}
	return flags
}

func run(c *cli.Context) error {
	cfg, err := config.Load(c.String("config"), flagOverrides(c))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stdout,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.SetDefault(log)
	slogLogger := logger.Slog(log)

	log.Info("starting "+appName, "version", buildinfo.String(), "config", c.String("config"))

	ctx, cancel := context.WithCancel(c.Context)
	defer cancel()

	store, err := initFixture(ctx, cfg, slogLogger)
	if err != nil {
		return err
	}

	reg := metric.NewRegistry()
	metrics := metric.NewServerMetrics(reg)
	tokens := handler.NewTokens(cfg.Session.TTL, handler.WithTokenObserver(metrics.SetActiveTokens))
	go tokens.Run(ctx, cfg.Session.SweepInterval)

	var limiter *httpserver.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = httpserver.NewRateLimiter(httpserver.RateLimitConfig{
			RPS:   cfg.RateLimit.RPS,
			Burst: cfg.RateLimit.Burst,
		})
		go limiter.Run(ctx)
	}

	router := httpserver.NewRouter(&httpserver.RouterConfig{
		Handler: handler.New(handler.Config{
			Store:    store,
			Tokens:   tokens,
			Metrics:  metrics,
			Logger:   slogLogger,
			AlwaysOK: cfg.Server.HTTP.AlwaysOK,
		}),
		Registry:           reg,
		Logger:             slogLogger,
		RateLimiter:        limiter,
		CORSAllowedOrigins: cfg.Server.HTTP.CORSOrigins,
		EnableAudit:        cfg.Server.HTTP.Audit,
	})

	var certs *tlsroots.CertReloader
	if cfg.Server.HTTP.TLSEnabled() {
		certs, err = tlsroots.NewCertReloader(cfg.Server.HTTP.TLSCertFile, cfg.Server.HTTP.TLSKeyFile, slogLogger)
		if err != nil {
			return err
		}
		go func() {
			if err := certs.Watch(ctx); err != nil {
				log.Warn("certificate watch stopped", "error", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", cfg.Server.HTTP.Addr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	server := httpserver.New(cfg.Server.HTTP.Addr, router)

	shutdownHandler := shutdown.NewHandler(cfg.Server.HTTP.ShutdownTimeout, log)
	shutdownHandler.OnShutdown("background", func(context.Context) error {
		cancel()
		return nil
	})
	shutdownHandler.OnShutdown("http", func(ctx context.Context) error {
		log.Info("shutting down HTTP server")
		return server.Shutdown(ctx)
	})

	serveErr := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", "addr", ln.Addr().String(), "tls", certs != nil)
		if certs != nil {
			serveErr <- server.ServeTLS(ln, certs)
		} else {
			serveErr <- server.Serve(ln)
		}
		cancel()
	}()

	if err := shutdownHandler.Wait(ctx); err != nil {
		return err
	}
	if err := <-serveErr; err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("server stopped gracefully")
	return nil
}

func initFixture(ctx context.Context, cfg *config.ServerConfig, log *slog.Logger) (*fixture.Store, error) {
	ds := fixture.Default()
	if cfg.Fixture.Path != "" {
		var err error
		if ds, err = fixture.LoadFile(cfg.Fixture.Path); err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
	}

	store, err := fixture.New(ds)
	if err != nil {
		return nil, fmt.Errorf("load fixture: %w", err)
	}
	log.Info("fixture loaded", "path", cfg.Fixture.Path,
		"users", len(ds.Users), "suppliers", len(ds.Suppliers), "orders", len(ds.Orders))

	if cfg.Fixture.Watch {
		if err := fixture.Watch(ctx, store, cfg.Fixture.Path, log); err != nil {
			return nil, fmt.Errorf("watch fixture: %w", err)
		}
	}
	return store, nil
}
