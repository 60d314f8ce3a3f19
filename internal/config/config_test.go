package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, "ecommerce.db", cfg.Database.Path)
	assert.Equal(t, 10, cfg.API.DefaultPerPage)
	assert.Equal(t, 1000, cfg.Loader.BatchSize)
	assert.Equal(t, "localhost:5000", cfg.Addr())
	assert.True(t, cfg.Metrics.Enabled)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfig_NoFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadConfig_JSONFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	data := `{
  "version": 1,
  "database": {"path": "data/shop.db"},
  "server": {"port": 8080, "staticDir": "web"},
  "api": {"maxPerPage": 50}
}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ecomapi.json"), []byte(data), 0644))

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "data/shop.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "web", cfg.Server.StaticDir)
	assert.Equal(t, 50, cfg.API.MaxPerPage)
	// untouched keys keep their defaults
	assert.Equal(t, 10, cfg.API.DefaultPerPage)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestLoadConfig_TOMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	data := `
version = 1

[loader]
usersCsv = "in/users.csv"
batchSize = 250

[logging]
format = "json"
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "in/users.csv", cfg.Loader.UsersCSV)
	assert.Equal(t, "archive/orders.csv", cfg.Loader.OrdersCSV)
	assert.Equal(t, 250, cfg.Loader.BatchSize)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ECOMAPI_DATABASE_PATH", "/srv/ecommerce.db")
	t.Setenv("ECOMAPI_SERVER_PORT", "9090")
	t.Setenv("ECOMAPI_METRICS_ENABLED", "false")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "/srv/ecommerce.db", cfg.Database.Path)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoadConfig_MissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": 1, "loader": {"batchSize": 0}}`), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "loader.batchSize", cfgErr.Field)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, "", false},
		{"wrong version", func(c *Config) { c.Version = 7 }, "version", true},
		{"empty db path", func(c *Config) { c.Database.Path = " " }, "database.path", true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port", true},
		{"zero default per page", func(c *Config) { c.API.DefaultPerPage = 0 }, "api.defaultPerPage", true},
		{"negative max per page", func(c *Config) { c.API.MaxPerPage = -1 }, "api.maxPerPage", true},
		{"max below default", func(c *Config) { c.API.MaxPerPage = 5 }, "api.maxPerPage", true},
		{"uncapped per page", func(c *Config) { c.API.MaxPerPage = 0 }, "", false},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format", true},
		{"relative metrics endpoint", func(c *Config) { c.Metrics.Endpoint = "metrics" }, "metrics.endpoint", true},
		{"metrics disabled ignores endpoint", func(c *Config) {
			c.Metrics.Enabled = false
			c.Metrics.Endpoint = ""
		}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}
