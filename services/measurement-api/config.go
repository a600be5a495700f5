package main

import (
	"log/slog"
	"strings"
	"time"

	"github.com/m4reQ/skyva/internal/config"
	"github.com/m4reQ/skyva/internal/repository"
)

type Config struct {
	HTTPPort       string
	AllowedOrigins []string

	Postgres     config.Postgres
	ValkeyAddr   string
	StoreTimeout time.Duration

	LogLevel slog.Level
}

func LoadConfig() (Config, error) {
	var cfg Config
	var err error

	cfg.HTTPPort = config.GetEnv("HTTP_PORT", "8000")
	cfg.AllowedOrigins = splitList(config.GetEnv("CORS_ALLOWED_ORIGINS", "*"))

	if cfg.Postgres, err = config.LoadPostgres(); err != nil {
		return cfg, err
	}
	cfg.ValkeyAddr = config.GetEnv("VALKEY_ADDR", "")
	if cfg.StoreTimeout, err = config.GetEnvDuration("STORE_TIMEOUT", repository.DefaultTimeout); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = config.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// splitList parses "a, b,c" into its non-empty items.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("http_port", c.HTTPPort),
		slog.Any("allowed_origins", c.AllowedOrigins),
		slog.String("postgres", c.Postgres.String()),
		slog.String("valkey", c.ValkeyAddr),
	)
}
