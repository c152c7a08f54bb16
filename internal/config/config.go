// Package config loads the pangea configuration from a YAML file and
// PANGEA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override, e.g. PANGEA_HTTP_ADDR.
const EnvPrefix = "PANGEA_"

// Driver names for pluggable backends.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config is the full runtime configuration.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Session SessionConfig `mapstructure:"session"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Store   DriverConfig  `mapstructure:"store"`
	Handles DriverConfig  `mapstructure:"handles"`

	Encryption EncryptionConfig `mapstructure:"encryption"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type SessionConfig struct {
	// Coalesce merges updates queued behind an in-flight push.
	Coalesce bool `mapstructure:"coalesce"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

type DriverConfig struct {
	Driver string `mapstructure:"driver"`
}

// EncryptionConfig enables encryption of stored snapshots. Keys are base64
// encoded AES-256 keys; an empty Key leaves snapshots in plain text.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key"`
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		HTTP:    HTTPConfig{Addr: ":8080", ShutdownTimeout: 5 * time.Second},
		Metrics: MetricsConfig{Enabled: true},
		Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "pangea:", LockTTL: 30 * time.Second},
		Store:   DriverConfig{Driver: DriverMemory},
		Handles: DriverConfig{Driver: DriverMemory},
	}
}

// Load reads path (optional) and applies environment overrides on top of
// the defaults. A missing file is not an error when path is empty.
func Load(path string) (Config, error) {
	raw := map[string]any{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	overlayEnv(raw, os.Environ())

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
		),
	})
	if err != nil {
		return Config{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// sections are the top-level keys environment variables may target.
var sections = map[string]bool{
	"log": true, "session": true, "http": true, "metrics": true,
	"redis": true, "store": true, "handles": true, "encryption": true,
}

// overlayEnv copies PANGEA_SECTION_KEY=value entries into raw[section][key].
// Everything after the first underscore of the remainder is the key, so
// PANGEA_HTTP_SHUTDOWN_TIMEOUT sets http.shutdown_timeout. Values stay
// strings; the decoder converts them.
func overlayEnv(raw map[string]any, environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		section, key, ok := strings.Cut(strings.ToLower(strings.TrimPrefix(name, EnvPrefix)), "_")
		if !ok || key == "" || !sections[section] {
			continue
		}

		sub, ok := raw[section].(map[string]any)
		if !ok {
			sub = map[string]any{}
			raw[section] = sub
		}
		sub[key] = value
	}
}

// Validate checks driver names and the combinations they require.
func (c Config) Validate() error {
	var errs []error
	for name, d := range map[string]string{"store": c.Store.Driver, "handles": c.Handles.Driver} {
		if d != DriverMemory && d != DriverRedis {
			errs = append(errs, fmt.Errorf("%s.driver: unknown driver %q", name, d))
		}
	}
	if c.UsesRedis() && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required by the redis driver"))
	}
	if c.Encryption.Key == "" && len(c.Encryption.FallbackKeys) > 0 {
		errs = append(errs, errors.New("encryption.fallback_keys requires encryption.key"))
	}
	if c.HTTP.ShutdownTimeout < 0 {
		errs = append(errs, errors.New("http.shutdown_timeout must not be negative"))
	}
	return errors.Join(errs...)
}

// UsesRedis reports whether any backend needs a Redis connection.
func (c Config) UsesRedis() bool {
	return c.Store.Driver == DriverRedis || c.Handles.Driver == DriverRedis
}
