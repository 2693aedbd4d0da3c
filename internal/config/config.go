package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverBolt   = "bolt"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port               int    `env:"PORT" envDefault:"3000"`
	MasterSecret       string `env:"MASTER_SECRET"`
	GinMode            string `env:"GIN_MODE" envDefault:"release"`
	TLSCertFile        string `env:"TLS_CERT_FILE"`
	TLSKeyFile         string `env:"TLS_KEY_FILE"`
	TokenExpirySeconds int    `env:"TOKEN_EXPIRY_SECONDS" envDefault:"604800"`
	StoreDriver        string `env:"STORE_DRIVER" envDefault:"bolt"`
	DataFile           string `env:"DATA_FILE" envDefault:"data/students.db"`
	SnapshotFile       string `env:"SNAPSHOT_FILE"`
	ClientIdleSeconds  int    `env:"CLIENT_IDLE_SECONDS" envDefault:"1800"`
	LoginRateLimit     int    `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	LogLevel           string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat          string `env:"LOG_FORMAT" envDefault:"text"`
	CookieSecure       bool   `env:"COOKIE_SECURE"`
}

func (c Config) TokenExpiry() time.Duration {
	return time.Duration(c.TokenExpirySeconds) * time.Second
}

func (c Config) ClientIdleTimeout() time.Duration {
	return time.Duration(c.ClientIdleSeconds) * time.Second
}

// SlogLevel maps LOG_LEVEL onto a slog level; unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(nil)
}

// LoadConfigFromEnv parses the given environment. A nil map reads the
// process environment.
func LoadConfigFromEnv(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid PORT")
	}
	if cfg.MasterSecret == "" {
		return Config{}, fmt.Errorf("MASTER_SECRET is required")
	}
	if cfg.TokenExpirySeconds <= 0 {
		return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
	}
	if cfg.ClientIdleSeconds <= 0 {
		return Config{}, fmt.Errorf("invalid CLIENT_IDLE_SECONDS")
	}
	if cfg.LoginRateLimit <= 0 {
		return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT")
	}

	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	switch cfg.StoreDriver {
	case StoreDriverBolt:
		if strings.TrimSpace(cfg.DataFile) == "" {
			return Config{}, fmt.Errorf("DATA_FILE is required for the bolt store")
		}
	case StoreDriverMemory:
	default:
		return Config{}, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}

	return cfg, nil
}
