package config

import (
	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/internal/infra/confloader"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "SUPPLIER_MOCK_"

// Load layers defaults, the optional file at path, the environment and
// flags (dotted keys), then verifies the result.
func Load(path string, flags map[string]any) (*ServerConfig, error) {
	cfg := Default()

	opts := []confloader.Option{confloader.WithEnvPrefix(EnvPrefix)}
	if path != "" {
		opts = append(opts, confloader.WithConfigFile(path))
	}
	l := confloader.NewLoader(opts...)
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

	if err := Verify(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
