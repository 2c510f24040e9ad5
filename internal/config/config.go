package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config drives one schedsync process. Values come from an optional YAML
// file (SCHEDSYNC_CONFIG) overridden by SCHEDSYNC_* environment variables.
type Config struct {
	StoreBackend       string
	SQLitePath         string
	RESTBaseURL        string
	OwnerID            string
	BindAddress        string
	UnixSocketPath     string
	RequireBearerToken bool
	BearerToken        string
	SessionPath        string
	SessionPassphrase  string
	RequestTimeout     time.Duration
	LogLevel           string
	WeekStart          string
}

// fileConfig mirrors Config for YAML, with the timeout as a duration string.
type fileConfig struct {
	StoreBackend       *string `yaml:"store_backend"`
	SQLitePath         *string `yaml:"sqlite_path"`
	RESTBaseURL        *string `yaml:"rest_base_url"`
	OwnerID            *string `yaml:"owner_id"`
	BindAddress        *string `yaml:"bind_address"`
	UnixSocketPath     *string `yaml:"unix_socket"`
	RequireBearerToken *bool   `yaml:"require_token"`
	BearerToken        *string `yaml:"bearer_token"`
	SessionPath        *string `yaml:"session_path"`
	SessionPassphrase  *string `yaml:"session_passphrase"`
	RequestTimeout     *string `yaml:"request_timeout"`
	LogLevel           *string `yaml:"log_level"`
	WeekStart          *string `yaml:"week_start"`
}

func defaults() Config {
	return Config{
		StoreBackend:       "sqlite",
		SQLitePath:         "schedsync.db",
		BindAddress:        "127.0.0.1:9843",
		RequireBearerToken: true,
		RequestTimeout:     10 * time.Second,
		LogLevel:           "info",
		WeekStart:          "sunday",
	}
}

func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("SCHEDSYNC_CONFIG")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
		if err := fc.apply(&cfg); err != nil {
			return Config{}, fmt.Errorf("config file %s: %w", path, err)
		}
	}

	cfg.StoreBackend = getenvDefault("SCHEDSYNC_STORE", cfg.StoreBackend)
	cfg.SQLitePath = getenvDefault("SCHEDSYNC_SQLITE_PATH", cfg.SQLitePath)
	cfg.RESTBaseURL = getenvDefault("SCHEDSYNC_REST_BASE_URL", cfg.RESTBaseURL)
	cfg.OwnerID = getenvDefault("SCHEDSYNC_OWNER_ID", cfg.OwnerID)
	cfg.BindAddress = getenvDefault("SCHEDSYNC_BIND_ADDRESS", cfg.BindAddress)
	cfg.UnixSocketPath = getenvDefault("SCHEDSYNC_UNIX_SOCKET", cfg.UnixSocketPath)
	cfg.RequireBearerToken = getenvBool("SCHEDSYNC_REQUIRE_TOKEN", cfg.RequireBearerToken)
	cfg.BearerToken = getenvDefault("SCHEDSYNC_BEARER_TOKEN", cfg.BearerToken)
	cfg.SessionPath = getenvDefault("SCHEDSYNC_SESSION_PATH", cfg.SessionPath)
	cfg.SessionPassphrase = getenvDefault("SCHEDSYNC_SESSION_PASSPHRASE", cfg.SessionPassphrase)
	cfg.RequestTimeout = getenvDuration("SCHEDSYNC_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.LogLevel = getenvDefault("SCHEDSYNC_LOG_LEVEL", cfg.LogLevel)
	cfg.WeekStart = getenvDefault("SCHEDSYNC_WEEK_START", cfg.WeekStart)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (fc fileConfig) apply(cfg *Config) error {
	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	setString(&cfg.StoreBackend, fc.StoreBackend)
	setString(&cfg.SQLitePath, fc.SQLitePath)
	setString(&cfg.RESTBaseURL, fc.RESTBaseURL)
	setString(&cfg.OwnerID, fc.OwnerID)
	setString(&cfg.BindAddress, fc.BindAddress)
	setString(&cfg.UnixSocketPath, fc.UnixSocketPath)
	setString(&cfg.BearerToken, fc.BearerToken)
	setString(&cfg.SessionPath, fc.SessionPath)
	setString(&cfg.SessionPassphrase, fc.SessionPassphrase)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.WeekStart, fc.WeekStart)
	if fc.RequireBearerToken != nil {
		cfg.RequireBearerToken = *fc.RequireBearerToken
	}
	if fc.RequestTimeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*fc.RequestTimeout))
		if err != nil {
			return fmt.Errorf("request_timeout: %w", err)
		}
		cfg.RequestTimeout = d
	}
	return nil
}

func (c Config) Validate() error {
	switch c.StoreBackend {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SCHEDSYNC_SQLITE_PATH is required when store=sqlite")
		}
	case "rest":
		if c.RESTBaseURL == "" && c.SessionPath == "" {
			return errors.New("SCHEDSYNC_REST_BASE_URL or a session file is required when store=rest")
		}
	default:
		return fmt.Errorf("invalid store backend: %s", c.StoreBackend)
	}
	if c.OwnerID == "" {
		return errors.New("SCHEDSYNC_OWNER_ID is required")
	}
	if c.BindAddress == "" && c.UnixSocketPath == "" {
		return errors.New("either bind address or unix socket path must be configured")
	}
	if c.RequireBearerToken && c.BearerToken == "" {
		return errors.New("SCHEDSYNC_BEARER_TOKEN is required when token auth is enabled")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be > 0")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	switch c.WeekStart {
	case "", "sunday", "monday":
	default:
		return fmt.Errorf("invalid week start: %s", c.WeekStart)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
