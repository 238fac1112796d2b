package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yndnr/supplier-portal/internal/cli/connection"
	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/infra/confloader"
	"github.com/yndnr/supplier-portal/internal/storage"
	"github.com/yndnr/supplier-portal/internal/telemetry/logger"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// DefaultEnvironment is the environment selected when none is configured.
const DefaultEnvironment = "local"

// CLIConfig is the configuration for supplier-cli.
type CLIConfig struct {
	// CurrentEnvironment names the entry of Environments in use.
	CurrentEnvironment string `koanf:"current_environment" yaml:"current_environment"`

	// Environments maps deployment names to endpoints.
	Environments map[string]Environment `koanf:"environments" yaml:"environments"`

	Storage storage.Config `koanf:"storage" yaml:"storage"`
	Session SessionConfig  `koanf:"session" yaml:"session"`
	Log     LogConfig      `koanf:"log" yaml:"log"`

	// Output is the default output format: table, json or yaml.
	Output string `koanf:"output" yaml:"output"`
}

// Environment is one deployment of the script endpoint.
type Environment struct {
	Endpoint string        `koanf:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `koanf:"timeout" yaml:"timeout"`

	// CAFile is an optional PEM bundle trusted in addition to the system roots.
	CAFile string `koanf:"ca_file" yaml:"ca_file,omitempty"`
}

// SessionConfig controls session lifetime.
type SessionConfig struct {
	// MaxAge reports older sessions as absent. 0 disables.
	MaxAge time.Duration `koanf:"max_age" yaml:"max_age"`

	// RevokeOnLogout asks the endpoint to drop the token on logout.
	RevokeOnLogout bool `koanf:"revoke_on_logout" yaml:"revoke_on_logout"`
}

// LogConfig configures CLI diagnostics on stderr.
type LogConfig struct {
	Level  string `koanf:"level" yaml:"level"`
	Format string `koanf:"format" yaml:"format"`
}

// DefaultDir returns the CLI state directory.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".supplier"
	}
	return filepath.Join(home, ".supplier")
}

// DefaultConfigPath returns the default CLI config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Default returns the default CLI configuration.
func Default() *CLIConfig {
	return &CLIConfig{
		CurrentEnvironment: DefaultEnvironment,
		Environments: map[string]Environment{
			DefaultEnvironment: {
				Endpoint: "http://localhost:5090/exec",
				Timeout:  10 * time.Second,
			},
		},
		Storage: storage.DefaultConfig(DefaultDir()),
		Session: SessionConfig{
			MaxAge:         12 * time.Hour,
			RevokeOnLogout: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputTable,
	}
}

// Overrides are flag values applied after layering. They address the
// selected environment, which is only known once the layers are merged.
type Overrides struct {
	Environment string
	Endpoint    string
	Timeout     time.Duration
}

func (o Overrides) apply(c *CLIConfig) {
	if o.Environment != "" {
		c.CurrentEnvironment = o.Environment
	}
	if o.Endpoint == "" && o.Timeout == 0 {
		return
	}
	if c.Environments == nil {
		c.Environments = make(map[string]Environment)
	}
	env := c.Environments[c.CurrentEnvironment]
	if o.Endpoint != "" {
		env.Endpoint = o.Endpoint
	}
	if o.Timeout != 0 {
		env.Timeout = o.Timeout
	}
	c.Environments[c.CurrentEnvironment] = env
}

// Load layers path (optional), SUPPLIER_* environment variables and flags
// over Default(), resolves secrets and validates the result.
//
// flags holds dotted keys for the flags the user actually set.
func Load(path string, flags map[string]any) (*CLIConfig, error) {
	return LoadWithOverrides(path, flags, Overrides{})
}

// LoadWithOverrides is Load followed by ov, before validation.
func LoadWithOverrides(path string, flags map[string]any, ov Overrides) (*CLIConfig, error) {
	if path == "" {
		path = DefaultConfigPath()
	}

	cfg := Default()
	l := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOptionalFile(),
	)
	if err := l.Load(cfg); err != nil {
		return nil, domain.ErrConfigInvalid.WithDetails(path).WithCause(err)
	}
	if len(flags) > 0 {
		if err := l.LoadMap(flags); err != nil {
			return nil, domain.ErrConfigInvalid.WithCause(err)
		}
		if err := l.Unmarshal(cfg); err != nil {
			return nil, domain.ErrConfigInvalid.WithCause(err)
		}
	}

	ov.apply(cfg)
	cfg.resolveSecrets()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *CLIConfig) resolveSecrets() {
	enc := &c.Storage.Encryption
	if enc.Enabled && enc.Passphrase == "" && enc.PassphraseEnv != "" {
		enc.Passphrase = os.Getenv(enc.PassphraseEnv)
	}
}

// Validate checks the configuration.
func (c *CLIConfig) Validate() error {
	if _, err := c.Active(); err != nil {
		return err
	}
	for name, env := range c.Environments {
		if _, err := connection.NormalizeEndpoint(env.Endpoint); err != nil {
			return domain.ErrConfigInvalid.WithDetails(fmt.Sprintf("environments.%s.endpoint", name)).WithCause(err)
		}
		if env.Timeout < 0 {
			return domain.ErrConfigInvalid.WithDetails(fmt.Sprintf("environments.%s.timeout must not be negative", name))
		}
	}

	if err := c.Storage.Validate(); err != nil {
		return domain.ErrConfigInvalid.WithDetails("storage").WithCause(err)
	}
	if c.Session.MaxAge < 0 {
		return domain.ErrConfigInvalid.WithDetails("session.max_age must not be negative")
	}

	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		return domain.ErrConfigInvalid.WithDetails("unknown output format: " + c.Output)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return domain.ErrConfigInvalid.WithDetails("log.level").WithCause(err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return domain.ErrConfigInvalid.WithDetails("unknown log format: " + c.Log.Format)
	}
	return nil
}

// Active returns the selected environment.
func (c *CLIConfig) Active() (Environment, error) {
	env, ok := c.Environments[c.CurrentEnvironment]
	if !ok {
		return Environment{}, domain.ErrConfigInvalid.WithDetails(
			fmt.Sprintf("unknown environment %q (have: %s)", c.CurrentEnvironment, strings.Join(c.EnvironmentNames(), ", ")))
	}
	return env, nil
}

// EnvironmentNames returns the configured environment names, sorted.
func (c *CLIConfig) EnvironmentNames() []string {
	names := make([]string, 0, len(c.Environments))
	for name := range c.Environments {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Save writes cfg to path as YAML, readable only by the owner. The
// encryption passphrase is never written.
func Save(cfg *CLIConfig, path string) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, os.ErrNotExist)
}
