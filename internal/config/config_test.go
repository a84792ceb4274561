package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/geoquality/surveyform/internal/kvstore"
	"github.com/geoquality/surveyform/internal/survey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "survey.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func clearEnv(t *testing.T) {
	for _, k := range []string{EnvStore, EnvSQLitePath, EnvDatabase, EnvOrigin, EnvAPIURL, EnvLogLevel, EnvPort, EnvDedup} {
		t.Setenv(k, "")
	}
}

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_ValidYAML(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: postgres
  database_url: postgres://localhost/survey
scores:
  dedup: value
log:
  level: debug
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, kvstore.BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/survey", cfg.Store.DatabaseURL)
	assert.Equal(t, survey.DedupByValue, cfg.DedupStrategy())
	assert.Equal(t, "debug", cfg.Log.Level)

	// untouched sections keep their defaults
	assert.Equal(t, kvstore.DefaultOrigin, cfg.Store.Origin)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "store: [unclosed"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config YAML")
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/survey.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	cfg, err := LoadConfig("")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		EnvStore:    "memory",
		EnvOrigin:   "https://survey.example.org",
		EnvAPIURL:   "https://api.example.org",
		EnvLogLevel: "warn",
		EnvPort:     "9090",
		EnvDedup:    "value",
	}))
	require.NoError(t, err)

	assert.Equal(t, kvstore.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, "https://survey.example.org", cfg.Store.Origin)
	assert.Equal(t, "https://api.example.org", cfg.API.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, survey.DedupByValue, cfg.DedupStrategy())
	assert.Equal(t, "survey.db", cfg.Store.SQLitePath)
}

func TestApplyEnv_BadPort(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{EnvPort: "eighty"}))
	assert.ErrorContains(t, err, "PORT must be a number")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "memory", mutate: func(c *Config) { c.Store.Backend = kvstore.BackendMemory; c.Store.SQLitePath = "" }},
		{name: "sqlite without path", mutate: func(c *Config) { c.Store.SQLitePath = "" }, wantErr: "sqlite_path"},
		{name: "postgres without url", mutate: func(c *Config) { c.Store.Backend = kvstore.BackendPostgres }, wantErr: "DATABASE_URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "redis" }, wantErr: "unknown store backend"},
		{name: "bad dedup", mutate: func(c *Config) { c.Scores.Dedup = "newest" }, wantErr: "scores.dedup"},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: "server.port"},
		{name: "bad level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: "log level"},
		{name: "bad format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: "log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoad_EnvOverFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "store:\n  backend: sqlite\n  sqlite_path: from-file.db\n")
	t.Setenv(EnvSQLitePath, "from-env.db")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Store.SQLitePath)
	assert.Equal(t, kvstore.Options{
		Backend:    kvstore.BackendSQLite,
		Origin:     kvstore.DefaultOrigin,
		SQLitePath: "from-env.db",
	}, cfg.StoreOptions())
}

func TestLoad_NoFile(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvStore, "memory")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, kvstore.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, survey.DedupByField, cfg.DedupStrategy())
}
