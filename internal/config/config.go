// Package config provides configuration loading and validation for the CLI and server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/geoquality/surveyform/internal/kvstore"
	"github.com/geoquality/surveyform/internal/survey"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvStore      = "SURVEY_STORE"
	EnvSQLitePath = "SURVEY_SQLITE_PATH"
	EnvDatabase   = "DATABASE_URL"
	EnvOrigin     = "SURVEY_ORIGIN"
	EnvAPIURL     = "SURVEY_API_URL"
	EnvLogLevel   = "SURVEY_LOG_LEVEL"
	EnvPort       = "PORT"
	EnvDedup      = "SURVEY_SCORE_DEDUP"
)

// Config represents the configuration that can be loaded from a YAML file.
// All fields are optional; missing values use defaults.
type Config struct {
	Store  StoreConfig  `yaml:"store"`
	Scores ScoresConfig `yaml:"scores"`
	Server ServerConfig `yaml:"server"`
	API    APIConfig    `yaml:"api"`
	Log    LogConfig    `yaml:"log"`
}

// StoreConfig selects the key-value backend holding survey state.
type StoreConfig struct {
	Backend     string `yaml:"backend"`      // memory, sqlite or postgres
	Origin      string `yaml:"origin"`       // namespace for all keys
	SQLitePath  string `yaml:"sqlite_path"`  // database file for the sqlite backend
	DatabaseURL string `yaml:"database_url"` // PostgreSQL connection URL
}

type ScoresConfig struct {
	Dedup string `yaml:"dedup"` // field or value
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	AllowedOrigin string `yaml:"allowed_origin"`
	RateLimit     bool   `yaml:"rate_limit"`
}

// APIConfig points at the survey submission API.
type APIConfig struct {
	URL string `yaml:"url"`
}

type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// Default returns the configuration used when nothing else is given.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Backend:    kvstore.BackendSQLite,
			Origin:     kvstore.DefaultOrigin,
			SQLitePath: "survey.db",
		},
		Scores: ScoresConfig{Dedup: survey.DedupByField.String()},
		Server: ServerConfig{Port: 8080, AllowedOrigin: "*", RateLimit: true},
		API:    APIConfig{URL: "http://localhost:3000"},
		Log:    LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	return &cfg, nil
}

// Load reads path when set, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		fromFile, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = *fromFile
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyEnv overrides fields from environment variables read through getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	set(&c.Store.Backend, EnvStore)
	set(&c.Store.SQLitePath, EnvSQLitePath)
	set(&c.Store.DatabaseURL, EnvDatabase)
	set(&c.Store.Origin, EnvOrigin)
	set(&c.API.URL, EnvAPIURL)
	set(&c.Log.Level, EnvLogLevel)
	set(&c.Scores.Dedup, EnvDedup)

	if v := strings.TrimSpace(getenv(EnvPort)); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config error: %s must be a number: %w", EnvPort, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case kvstore.BackendMemory:
	case kvstore.BackendSQLite:
		if c.Store.SQLitePath == "" {
			return fmt.Errorf("config error: 'store.sqlite_path' is required for the sqlite backend")
		}
	case kvstore.BackendPostgres:
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("config error: 'store.database_url' or %s is required for the postgres backend", EnvDatabase)
		}
	default:
		return fmt.Errorf("config error: unknown store backend %q", c.Store.Backend)
	}

	if _, err := survey.ParseDedupStrategy(c.Scores.Dedup); err != nil {
		return fmt.Errorf("config error: 'scores.dedup': %w", err)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config error: 'server.port' out of range: %d", c.Server.Port)
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown log level %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("config error: unknown log format %q", c.Log.Format)
	}

	return nil
}

// StoreOptions converts the store section for kvstore.Open.
func (c *Config) StoreOptions() kvstore.Options {
	return kvstore.Options{
		Backend:     c.Store.Backend,
		Origin:      c.Store.Origin,
		SQLitePath:  c.Store.SQLitePath,
		DatabaseURL: c.Store.DatabaseURL,
	}
}

// DedupStrategy returns the configured score merge strategy.
func (c *Config) DedupStrategy() survey.DedupStrategy {
	d, _ := survey.ParseDedupStrategy(c.Scores.Dedup)
	return d
}
