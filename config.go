package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	DatabaseURL        string        `yaml:"database_url"`
	APIToken           string        `yaml:"api_token"`
	HTTPAddr           string        `yaml:"http_addr"`
	JWTSecret          string        `yaml:"jwt_secret"`
	DBMaxConns         int           `yaml:"db_max_conns"`
	SignalRegistryFile string        `yaml:"signal_registry_file"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	ReadTimeout        time.Duration `yaml:"read_timeout"`
	WriteTimeout       time.Duration `yaml:"write_timeout"`
	ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	AuditExports       bool          `yaml:"audit_exports"`
}

func defaultConfig() config {
	return config{
		HTTPAddr:        ":8080",
		DBMaxConns:      10,
		MaxBodyBytes:    1 << 20,
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AuditExports:    true,
	}
}

// loadConfig reads the optional YAML file named by INGESTOR_CONFIG, then
// applies non-empty environment variables on top of it.
func loadConfig() (config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("INGESTOR_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.DatabaseURL = getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", cfg.DatabaseURL))
	cfg.APIToken = getenvDefault("API_TOKEN", cfg.APIToken)
	if port := os.Getenv("PORT"); port != "" {
		cfg.HTTPAddr = ":" + port
	}
	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", cfg.HTTPAddr)
	cfg.JWTSecret = getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", cfg.JWTSecret))
	cfg.DBMaxConns = getenvIntDefault("DB_MAX_CONNS", cfg.DBMaxConns)
	cfg.SignalRegistryFile = getenvDefault("SIGNAL_REGISTRY_FILE", cfg.SignalRegistryFile)
	cfg.MaxBodyBytes = int64(getenvIntDefault("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.ReadTimeout = getenvDuration("HTTP_READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getenvDuration("HTTP_WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.ShutdownTimeout = getenvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.AuditExports = getenvBoolDefault("AUDIT_EXPORTS", cfg.AuditExports)

	return cfg, cfg.validate()
}

func (c config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL or PG_DSN is required")
	}
	if strings.TrimSpace(c.APIToken) == "" {
		return errors.New("API_TOKEN is required")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return errors.New("MAX_BODY_BYTES must be > 0")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("SHUTDOWN_TIMEOUT must be > 0")
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
