package config

import "time"

// ServerConfig is the root configuration for supplier-mockd.
type ServerConfig struct {
	Server    ServerSection    `koanf:"server"`
	Fixture   FixtureSection   `koanf:"fixture"`
	Session   SessionSection   `koanf:"session"`
	RateLimit RateLimitSection `koanf:"rate_limit"`
	Log       LogSection       `koanf:"log"`
}

// ServerSection configures server endpoints.
type ServerSection struct {
	HTTP HTTPConfig `koanf:"http"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string `koanf:"addr"`
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`

	// ShutdownTimeout bounds the graceful drain on SIGINT/SIGTERM.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// CORSOrigins lists browser origins allowed to call /exec. Empty
	// disables CORS headers.
	CORSOrigins []string `koanf:"cors_origins"`

	// AlwaysOK answers every request with HTTP 200 and reports failures
	// only in the envelope, like a hosted script runtime.
	AlwaysOK bool `koanf:"always_ok"`

	// Audit logs one line per request.
	Audit bool `koanf:"audit"`
}

// TLSEnabled reports whether a certificate pair is configured.
func (c HTTPConfig) TLSEnabled() bool {
	return c.TLSCertFile != "" && c.TLSKeyFile != ""
}

// FixtureSection configures the dataset the endpoint serves.
type FixtureSection struct {
	// Path is a YAML fixture file. Empty serves the built-in dataset.
	Path string `koanf:"path"`

	// Watch reloads Path when it changes on disk.
	Watch bool `koanf:"watch"`
}

// SessionSection configures issued tokens.
type SessionSection struct {
	TTL time.Duration `koanf:"ttl"`

	// SweepInterval is how often expired tokens are purged.
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// RateLimitSection configures per-client request limiting.
type RateLimitSection struct {
	// RPS is the sustained requests per second per client. 0 disables.
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// LogSection configures logging.
type LogSection struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}
