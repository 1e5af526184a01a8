// Package config reads the application settings from the environment.
//
// Keys are plain environment variable names lower-cased by koanf, so
// DATABASE_URL lands in Config.DatabaseURL. A .env file, when present, is
// loaded by main before Load is called.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/yeremiapane/freelance-app/validation"
)

const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
	DriverSQLite   = "sqlite"
)

type Config struct {
	DatabaseURL    string `koanf:"database_url" validate:"required"`
	DatabaseDriver string `koanf:"database_driver" validate:"omitempty,oneof=postgres mysql sqlite"`

	LogLevel string `koanf:"log_level"`
	LogSQL   bool   `koanf:"log_sql"`

	MaxOpenConns    int `koanf:"db_max_open_conns" validate:"gte=0"`
	MaxIdleConns    int `koanf:"db_max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime int `koanf:"db_conn_max_lifetime" validate:"gte=0"` // seconds
	PingTimeout     int `koanf:"db_ping_timeout" validate:"gte=0"`      // seconds
}

// Default returns the settings used for anything the environment leaves unset.
func Default() Config {
	return Config{
		LogLevel:        "info",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 300,
		PingTimeout:     10,
	}
}

// Load builds a Config from the process environment and validates it.
func Load() (*Config, error) {
	return LoadWith(nil)
}

// LoadWith is Load with overrides applied on top of the environment.
// Override keys use the koanf names, e.g. "database_url".
func LoadWith(overrides map[string]any) (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.Provider("", ".", func(s string) string {
		return strings.ToLower(s)
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	for key, val := range overrides {
		if err := k.Set(key, val); err != nil {
			return nil, fmt.Errorf("applying override %s: %w", key, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the struct tags above. Failures come back as an
// errs.Error of kind Validation with one entry per field.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c *Config) ConnMaxLifetimeDuration() time.Duration {
	return time.Duration(c.ConnMaxLifetime) * time.Second
}

func (c *Config) PingTimeoutDuration() time.Duration {
	return time.Duration(c.PingTimeout) * time.Second
}
