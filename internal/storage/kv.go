package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/yndnr/supplier-portal/pkg/crypto/adaptive"
)

// Common errors.
var (
	ErrClosed         = errors.New("storage: store closed")
	ErrUnknownBackend = errors.New("storage: unknown backend")
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendBadger = "badger"
	BackendRedis  = "redis"
)

// KV is a string key-value store scoped to one client.
//
// Implementations must be safe for concurrent use. Put and Delete are
// atomic across all keys they touch.
type KV interface {
	// Get returns the values stored under keys. Missing keys are absent
	// from the result; a missing key is not an error.
	Get(ctx context.Context, keys ...string) (map[string]string, error)

	// Put stores all entries in one atomic write.
	Put(ctx context.Context, entries map[string]string) error

	// Delete removes keys in one atomic write. Deleting a missing key is a no-op.
	Delete(ctx context.Context, keys ...string) error

	// Close releases the backend.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	// Backend is one of memory, file, badger, redis. Default: file.
	Backend string `koanf:"backend" yaml:"backend"`

	// Namespace prefixes every key the session client writes.
	Namespace string `koanf:"namespace" yaml:"namespace"`

	File       FileConfig       `koanf:"file" yaml:"file"`
	Badger     BadgerConfig     `koanf:"badger" yaml:"badger"`
	Redis      RedisConfig      `koanf:"redis" yaml:"redis"`
	Encryption EncryptionConfig `koanf:"encryption" yaml:"encryption"`
}

// FileConfig configures FileStore.
type FileConfig struct {
	Path string `koanf:"path" yaml:"path"`
}

// BadgerConfig configures BadgerStore.
type BadgerConfig struct {
	Dir string `koanf:"dir" yaml:"dir"`

	// SyncWrites fsyncs every write. Default: true, sessions are tiny.
	SyncWrites bool `koanf:"sync_writes" yaml:"sync_writes"`
}

// RedisConfig configures RedisStore.
type RedisConfig struct {
	Addr     string `koanf:"addr" yaml:"addr"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	DB       int    `koanf:"db" yaml:"db"`
}

// EncryptionConfig wraps the selected backend in an EncryptedStore.
type EncryptionConfig struct {
	Enabled bool `koanf:"enabled" yaml:"enabled"`

	// PassphraseEnv names the environment variable holding the passphrase.
	PassphraseEnv string `koanf:"passphrase_env" yaml:"passphrase_env"`

	// Passphrase is resolved at load time and never persisted.
	Passphrase string `koanf:"-" yaml:"-"`
}

// DefaultConfig returns the default storage configuration rooted at dir.
func DefaultConfig(dir string) Config {
	return Config{
		Backend:   BackendFile,
		Namespace: "supplier",
		File: FileConfig{
			Path: filepath.Join(dir, "session.yaml"),
		},
		Badger: BadgerConfig{
			Dir:        filepath.Join(dir, "badger"),
			SyncWrites: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Encryption: EncryptionConfig{
			PassphraseEnv: "SUPPLIER_STORE_PASSPHRASE",
		},
	}
}

// Validate checks the configuration for the selected backend.
func (c Config) Validate() error {
	switch c.backend() {
	case BackendMemory:
	case BackendFile:
		if c.File.Path == "" {
			return fmt.Errorf("storage.file.path is required")
		}
	case BackendBadger:
		if c.Badger.Dir == "" {
			return fmt.Errorf("storage.badger.dir is required")
		}
	case BackendRedis:
		if c.Redis.Addr == "" {
			return fmt.Errorf("storage.redis.addr is required")
		}
		if c.Redis.DB < 0 {
			return fmt.Errorf("storage.redis.db must be non-negative")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.Encryption.Enabled && len(c.Encryption.Passphrase) < adaptive.MinPassphraseLength {
		return adaptive.ErrPassphraseTooWeak
	}
	return nil
}

func (c Config) backend() string {
	if c.Backend == "" {
		return BackendFile
	}
	return strings.ToLower(c.Backend)
}

// Open builds the configured backend, wrapped in an EncryptedStore when
// encryption is enabled.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (KV, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	var (
		kv  KV
		err error
	)
	switch cfg.backend() {
	case BackendMemory:
		kv = NewMemoryStore()
	case BackendFile:
		kv, err = NewFileStore(expandHome(cfg.File.Path))
	case BackendBadger:
		kv, err = NewBadgerStore(expandHome(cfg.Badger.Dir), cfg.Badger.SyncWrites, logger)
	case BackendRedis:
		kv, err = NewRedisStore(ctx, cfg.Redis)
	}
	if err != nil {
		return nil, err
	}

	if !cfg.Encryption.Enabled {
		return kv, nil
	}

	enc, err := NewEncryptedStore(ctx, kv, []byte(cfg.Encryption.Passphrase), cfg.Namespace+".crypto.salt")
	if err != nil {
		kv.Close()
		return nil, err
	}
	return enc, nil
}

// expandHome replaces a leading "~/" with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
