package config

import "github.com/yndnr/supplier-portal/internal/infra/confloader"

// EnvVar documents one environment override.
type EnvVar struct {
	Name        string
	Key         string
	Description string
}

var documentedKeys = []struct {
	key, desc string
}{
	{"current_environment", "environment to use"},
	{"output", "default output format (table, json, yaml)"},
	{"storage.backend", "session store (memory, file, badger, redis)"},
	{"storage.namespace", "session key namespace"},
	{"storage.file.path", "file store path"},
	{"storage.badger.dir", "badger store directory"},
	{"storage.redis.addr", "redis address"},
	{"storage.redis.password", "redis password"},
	{"storage.redis.db", "redis database number"},
	{"storage.encryption.enabled", "encrypt stored session values"},
	{"storage.encryption.passphrase_env", "variable holding the store passphrase"},
	{"session.max_age", "maximum session age, 0 disables"},
	{"session.revoke_on_logout", "revoke the token remotely on logout"},
	{"log.level", "log level (debug, info, warn, error)"},
	{"log.format", "log format (text, json)"},
}

// EnvVars lists the supported SUPPLIER_* overrides. Environment endpoints
// follow the same pattern, e.g. SUPPLIER_ENVIRONMENTS__PROD__ENDPOINT.
func EnvVars() []EnvVar {
	out := make([]EnvVar, 0, len(documentedKeys))
	for _, k := range documentedKeys {
		out = append(out, EnvVar{
			Name:        confloader.KeyToEnv(confloader.DefaultEnvPrefix, k.key),
			Key:         k.key,
			Description: k.desc,
		})
	}
	return out
}
