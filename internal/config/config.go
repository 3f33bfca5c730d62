package config

import (
	"errors"
	"fmt"
	"strings"
)

// Config defines household meter service configuration.
type Config struct {
	HTTP struct {
		Port string `yaml:"port" env:"HTTP_PORT"`
	} `yaml:"http"`
	Database struct {
		DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
	} `yaml:"database"`
	Redis struct {
		Addr       string `yaml:"addr" env:"REDIS_ADDR"`
		TTLSeconds int    `yaml:"ttl_seconds" env:"REDIS_TTL_SECONDS"`
	} `yaml:"redis"`
	Import struct {
		CSVPath string `yaml:"csv_path" env:"IMPORT_CSV_PATH"`
	} `yaml:"import"`
}

// Load configuration from file/env.
func Load() (*Config, error) {
	cfg := &Config{}
	cfg.HTTP.Port = "8080"
	cfg.Redis.TTLSeconds = 60

	if err := load(cfg); err != nil {
		return nil, err
	}

	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return nil, errors.New("config: database dsn required")
	}
	return cfg, nil
}

// HTTPAddress returns :port style string.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}
