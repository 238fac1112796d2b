package config

import "time"

// Default configuration values.
const (
	DefaultHTTPAddr        = "127.0.0.1:5090"
	DefaultShutdownTimeout = 10 * time.Second

	DefaultSessionTTL    = 8 * time.Hour
	DefaultSweepInterval = time.Minute

	DefaultRPS   = 20
	DefaultBurst = 40

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// Default returns the default server configuration.
func Default() *ServerConfig {
	return &ServerConfig{
		Server: ServerSection{
			HTTP: HTTPConfig{
				Addr:            DefaultHTTPAddr,
				ShutdownTimeout: DefaultShutdownTimeout,
				Audit:           true,
			},
		},
		Session: SessionSection{
			TTL:           DefaultSessionTTL,
			SweepInterval: DefaultSweepInterval,
		},
		RateLimit: RateLimitSection{
			RPS:   DefaultRPS,
			Burst: DefaultBurst,
		},
		Log: LogSection{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
