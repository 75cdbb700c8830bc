// Package config loads process configuration from ROGUEPATH_* environment variables.
package config

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// Prefix is prepended to every variable name.
const Prefix = "ROGUEPATH_"

// Store kinds.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

// Config is the process configuration.
type Config struct {
	Addr     string `env:"ADDR" envDefault:"127.0.0.1:8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogJSON  bool   `env:"LOG_JSON"`

	Store    string `env:"STORE" envDefault:"memory"`
	StoreDSN string `env:"STORE_DSN"`
	StoreDir string `env:"STORE_DIR" envDefault:".roguepath/paths"`

	// StoreKey enables encryption at rest: 64 hex characters (AES-256).
	StoreKey          string   `env:"STORE_KEY"`
	StoreFallbackKeys []string `env:"STORE_FALLBACK_KEYS" envSeparator:","`

	RedisAddr     string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB"`
	RedisPrefix   string        `env:"REDIS_PREFIX" envDefault:"roguepath:"`
	RedisTTL      time.Duration `env:"REDIS_TTL"`
	RedisLock     bool          `env:"REDIS_LOCK"`

	MQTTBroker   string `env:"MQTT_BROKER"`
	MQTTTopic    string `env:"MQTT_TOPIC" envDefault:"roguepath"`
	MQTTClientID string `env:"MQTT_CLIENT_ID" envDefault:"roguepath"`

	Catalog string `env:"CATALOG"`
	Seed    string `env:"SEED"`

	TickResolution time.Duration `env:"TICK_RESOLUTION" envDefault:"50ms"`
	TimerInterval  time.Duration `env:"TIMER_INTERVAL" envDefault:"1s"`
	SpawnInterval  time.Duration `env:"SPAWN_INTERVAL" envDefault:"1s"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS"`
	EventBuffer    int           `env:"EVENT_BUFFER" envDefault:"256"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: Prefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	case StorePostgres, StoreSQLite:
		if c.StoreDSN == "" {
			return fmt.Errorf("store %s requires %sSTORE_DSN", c.Store, Prefix)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.RedisLock && c.Store != StoreRedis {
		return fmt.Errorf("redis lock requires the redis store")
	}
	if c.TickResolution <= 0 || c.TimerInterval <= 0 || c.SpawnInterval <= 0 {
		return fmt.Errorf("tick, timer and spawn intervals must be positive")
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max attempts must not be negative")
	}
	if c.EventBuffer < 1 {
		return fmt.Errorf("event buffer must hold at least one event")
	}
	if _, err := c.SeedValue(); err != nil {
		return err
	}
	if _, _, err := c.StoreKeys(); err != nil {
		return err
	}
	return nil
}

// StoreKeys decodes the encryption keys. A nil active key means encryption is off.
func (c Config) StoreKeys() (active []byte, fallback [][]byte, err error) {
	if c.StoreKey == "" {
		if len(c.StoreFallbackKeys) > 0 {
			return nil, nil, fmt.Errorf("fallback keys require %sSTORE_KEY", Prefix)
		}
		return nil, nil, nil
	}
	if active, err = decodeKey(c.StoreKey); err != nil {
		return nil, nil, fmt.Errorf("store key: %w", err)
	}
	for i, k := range c.StoreFallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback key %d: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// SeedValue returns the explicit generator seed, or nil when none is set.
func (c Config) SeedValue() (*uint64, error) {
	if c.Seed == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(c.Seed, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid seed %q: %w", c.Seed, err)
	}
	return &v, nil
}
