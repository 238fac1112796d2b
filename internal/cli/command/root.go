package command

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/supplier-portal/internal/cli/config"
	"github.com/yndnr/supplier-portal/internal/cli/connection"
	"github.com/yndnr/supplier-portal/internal/cli/output"
	"github.com/yndnr/supplier-portal/internal/core/service"
	"github.com/yndnr/supplier-portal/internal/infra/buildinfo"
	"github.com/yndnr/supplier-portal/internal/infra/tlsroots"
	"github.com/yndnr/supplier-portal/internal/storage"
	"github.com/yndnr/supplier-portal/internal/telemetry/logger"
	"github.com/yndnr/supplier-portal/internal/telemetry/metric"
)

// AppName is the binary name shown in usage and the User-Agent.
const AppName = "supplier-cli"

const runtimeKey = "runtime"

type appOptions struct {
	store  storage.KV
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// shared is set for the per-line apps of the interactive shell.
	shared *runtime
}

// AppOption customizes NewApp.
type AppOption func(*appOptions)

// WithStore uses kv instead of the configured session store. The caller
// keeps ownership of kv.
func WithStore(kv storage.KV) AppOption {
	return func(o *appOptions) { o.store = kv }
}

// WithOutput redirects command output and diagnostics.
func WithOutput(stdout, stderr io.Writer) AppOption {
	return func(o *appOptions) {
		o.stdout = stdout
		o.stderr = stderr
	}
}

// WithInput sets where prompts and the shell read from.
func WithInput(r io.Reader) AppOption {
	return func(o *appOptions) { o.stdin = r }
}

// NewApp creates the CLI application.
func NewApp(opts ...AppOption) *cli.App {
	o := &appOptions{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.shared != nil {
		o.stdin, o.stdout, o.stderr = o.shared.stdin, o.shared.stdout, o.shared.stderr
	}

	app := &cli.App{
		Name:      AppName,
		Usage:     "Supplier Management System command-line client",
		Version:   buildinfo.String(),
		Flags:     globalFlags(),
		Commands:  commands(o.shared != nil),
		Reader:    o.stdin,
		Writer:    o.stdout,
		ErrWriter: o.stderr,
		Metadata:  map[string]any{},

		// Exit codes are decided by the caller through ExitCode.
		ExitErrHandler: func(*cli.Context, error) {},

		Action: func(c *cli.Context) error {
			if c.Args().Present() {
				return fmt.Errorf("unknown command %q", c.Args().First())
			}
			return cli.ShowAppHelp(c)
		},
	}

	if o.shared != nil {
		rt := o.shared
		app.Metadata[runtimeKey] = rt
		app.HideVersion = true
		app.Before = func(c *cli.Context) error {
			return rt.applyOutputFlags(c)
		}
		return app
	}

	app.Before = func(c *cli.Context) error {
		rt, err := newRuntime(c, o)
		if err != nil {
			return err
		}
		c.App.Metadata[runtimeKey] = rt
		return nil
	}
	app.After = func(c *cli.Context) error {
		if rt, ok := c.App.Metadata[runtimeKey].(*runtime); ok {
			return rt.Close()
		}
		return nil
	}
	return app
}

func commands(inShell bool) []*cli.Command {
	cmds := []*cli.Command{
		LoginCommand(),
		LogoutCommand(),
		WhoamiCommand(),
		CallCommand(),
		SupplierCommand(),
		OrderCommand(),
		ConfigCommand(),
		StatsCommand(),
	}
	if !inShell {
		cmds = append(cmds, ShellCommand())
	}
	return cmds
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Config file path",
			EnvVars: []string{"SUPPLIER_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "env",
			Aliases: []string{"e"},
			Usage:   "Environment to use (overrides current_environment)",
		},
		&cli.StringFlag{
			Name:  "endpoint",
			Usage: "Script endpoint URL for the selected environment",
		},
		&cli.StringFlag{
			Name:  "store",
			Usage: "Session store: memory, file, badger, redis",
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "Per-request timeout (e.g., 5s)",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.BoolFlag{
			Name:    "wide",
			Aliases: []string{"w"},
			Usage:   "Show wide output (more columns)",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"V"},
			Usage:   "Enable debug logging on stderr",
		},
	}
}

// runtime is the state shared by the commands of one invocation, or of
// one shell session.
type runtime struct {
	cfg        *config.CLIConfig
	configPath string
	log        logger.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	format output.Format
	wide   bool

	registry *prometheus.Registry
	metrics  *metric.ClientMetrics

	// noPrompt disables reading secrets from a non-terminal stdin, which
	// the shell is already consuming.
	noPrompt bool
	lines    *bufio.Reader

	mu        sync.Mutex
	store     storage.KV
	ownsStore bool
	client    *service.SessionClient
}

func newRuntime(c *cli.Context, o *appOptions) (*runtime, error) {
	path := c.String("config")
	if path == "" {
		path = config.DefaultConfigPath()
	}

	flags := map[string]any{}
	if c.IsSet("store") {
		flags["storage.backend"] = c.String("store")
	}
	if c.IsSet("output") {
		flags["output"] = c.String("output")
	}
	if c.Bool("verbose") {
		flags["log.level"] = "debug"
	}

	cfg, err := config.LoadWithOverrides(path, flags, config.Overrides{
		Environment: c.String("env"),
		Endpoint:    c.String("endpoint"),
		Timeout:     c.Duration("timeout"),
	})
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: o.stderr,
	})
	if err != nil {
		return nil, err
	}

	format, err := output.ParseFormat(cfg.Output)
	if err != nil {
		return nil, err
	}

	reg := metric.NewRegistry()
	rt := &runtime{
		cfg:        cfg,
		configPath: path,
		log:        log,
		stdin:      o.stdin,
		stdout:     o.stdout,
		stderr:     o.stderr,
		format:     format,
		wide:       c.Bool("wide"),
		registry:   reg,
		metrics:    metric.NewClientMetrics(reg),
	}
	if o.store != nil {
		rt.store = o.store
	}
	return rt, nil
}

// runtimeFrom returns the runtime installed by the app's Before hook.
func runtimeFrom(c *cli.Context) *runtime {
	for _, ctx := range c.Lineage() {
		if ctx.App == nil {
			continue
		}
		if rt, ok := ctx.App.Metadata[runtimeKey].(*runtime); ok {
			return rt
		}
	}
	panic("command: runtime not initialized")
}

// applyOutputFlags lets a shell line override the output format.
func (rt *runtime) applyOutputFlags(c *cli.Context) error {
	format, err := output.ParseFormat(rt.cfg.Output)
	if err != nil {
		return err
	}
	if c.IsSet("output") {
		if format, err = output.ParseFormat(c.String("output")); err != nil {
			return err
		}
	}
	rt.format = format
	rt.wide = c.Bool("wide")
	return nil
}

// Client returns the session client, opening the store on first use.
func (rt *runtime) Client(ctx context.Context) (*service.SessionClient, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	if rt.client != nil {
		return rt.client, nil
	}

	env, err := rt.cfg.Active()
	if err != nil {
		return nil, err
	}

	transportOpts := []connection.Option{
		connection.WithTimeout(env.Timeout),
		connection.WithUserAgent(buildinfo.UserAgent(AppName)),
	}
	if env.CAFile != "" {
		tlsCfg, err := tlsroots.ClientConfig(env.CAFile)
		if err != nil {
			return nil, fmt.Errorf("load ca_file: %w", err)
		}
		transportOpts = append(transportOpts, connection.WithTLSConfig(tlsCfg))
	}
	transport, err := connection.NewHTTPClient(env.Endpoint, transportOpts...)
	if err != nil {
		return nil, err
	}

	if rt.store == nil {
		kv, err := storage.Open(ctx, rt.cfg.Storage, logger.Slog(rt.log))
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		rt.store = kv
		rt.ownsStore = true
	}

	client, err := service.NewSessionClient(service.Options{
		Transport:      transport,
		Store:          rt.store,
		Namespace:      rt.cfg.Storage.Namespace,
		MaxAge:         rt.cfg.Session.MaxAge,
		RevokeOnLogout: rt.cfg.Session.RevokeOnLogout,
		Logger:         rt.log,
		Metrics:        rt.metrics,
	})
	if err != nil {
		return nil, err
	}
	rt.client = client
	return client, nil
}

// useStore replaces the session store and drops any client built on the
// previous one.
func (rt *runtime) useStore(kv storage.KV, owned bool) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.ownsStore && rt.store != nil {
		rt.store.Close()
	}
	rt.store = kv
	rt.ownsStore = owned
	rt.client = nil
}

// resetClient drops the session client so the next command picks up a
// changed environment.
func (rt *runtime) resetClient() {
	rt.mu.Lock()
	rt.client = nil
	rt.mu.Unlock()
}

// Close releases the store if the runtime opened it.
func (rt *runtime) Close() error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if !rt.ownsStore || rt.store == nil {
		return nil
	}
	err := rt.store.Close()
	rt.store = nil
	rt.client = nil
	return err
}

// render writes data in the selected output format.
func (rt *runtime) render(data any) error {
	data, err := output.Decode(data)
	if err != nil {
		return err
	}
	return output.NewFormatter(rt.format, rt.wide).Format(rt.stdout, data)
}

// spin runs fn behind a stderr spinner when stderr is a terminal.
func (rt *runtime) spin(message string, fn func() error) error {
	s := output.NewSpinner(rt.stderr, message)
	s.Start()
	defer s.Stop()
	return fn()
}
