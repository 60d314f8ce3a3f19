// Package config loads ecomapi configuration from defaults, an optional config
// file and ECOMAPI_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ECOMAPI_DATABASE_PATH.
const EnvPrefix = "ECOMAPI"

// CurrentVersion is the config schema version written by DefaultConfig.
const CurrentVersion = 1

// Config represents the complete ecomapi configuration
type Config struct {
	Version int `json:"version" mapstructure:"version" toml:"version" yaml:"version"`

	Database DatabaseConfig `json:"database" mapstructure:"database" toml:"database" yaml:"database"`
	Server   ServerConfig   `json:"server" mapstructure:"server" toml:"server" yaml:"server"`
	API      APIConfig      `json:"api" mapstructure:"api" toml:"api" yaml:"api"`
	Loader   LoaderConfig   `json:"loader" mapstructure:"loader" toml:"loader" yaml:"loader"`
	Reports  ReportsConfig  `json:"reports" mapstructure:"reports" toml:"reports" yaml:"reports"`
	Logging  LoggingConfig  `json:"logging" mapstructure:"logging" toml:"logging" yaml:"logging"`
	Metrics  MetricsConfig  `json:"metrics" mapstructure:"metrics" toml:"metrics" yaml:"metrics"`
}

// DatabaseConfig locates the SQLite data file
type DatabaseConfig struct {
	Path          string `json:"path" mapstructure:"path" toml:"path" yaml:"path"`
	BusyTimeoutMs int    `json:"busyTimeoutMs" mapstructure:"busyTimeoutMs" toml:"busyTimeoutMs" yaml:"busyTimeoutMs"`
}

// ServerConfig contains HTTP listener settings
type ServerConfig struct {
	Host               string `json:"host" mapstructure:"host" toml:"host" yaml:"host"`
	Port               int    `json:"port" mapstructure:"port" toml:"port" yaml:"port"`
	StaticDir          string `json:"staticDir" mapstructure:"staticDir" toml:"staticDir" yaml:"staticDir"`
	Gzip               bool   `json:"gzip" mapstructure:"gzip" toml:"gzip" yaml:"gzip"`
	ReadTimeoutSec     int    `json:"readTimeoutSec" mapstructure:"readTimeoutSec" toml:"readTimeoutSec" yaml:"readTimeoutSec"`
	WriteTimeoutSec    int    `json:"writeTimeoutSec" mapstructure:"writeTimeoutSec" toml:"writeTimeoutSec" yaml:"writeTimeoutSec"`
	IdleTimeoutSec     int    `json:"idleTimeoutSec" mapstructure:"idleTimeoutSec" toml:"idleTimeoutSec" yaml:"idleTimeoutSec"`
	ShutdownTimeoutSec int    `json:"shutdownTimeoutSec" mapstructure:"shutdownTimeoutSec" toml:"shutdownTimeoutSec" yaml:"shutdownTimeoutSec"`
}

// APIConfig contains request handling limits
type APIConfig struct {
	DefaultPerPage int `json:"defaultPerPage" mapstructure:"defaultPerPage" toml:"defaultPerPage" yaml:"defaultPerPage"`
	// MaxPerPage caps per_page; 0 disables the cap.
	MaxPerPage int `json:"maxPerPage" mapstructure:"maxPerPage" toml:"maxPerPage" yaml:"maxPerPage"`
}

// LoaderConfig contains CSV import settings
type LoaderConfig struct {
	UsersCSV  string `json:"usersCsv" mapstructure:"usersCsv" toml:"usersCsv" yaml:"usersCsv"`
	OrdersCSV string `json:"ordersCsv" mapstructure:"ordersCsv" toml:"ordersCsv" yaml:"ordersCsv"`
	BatchSize int    `json:"batchSize" mapstructure:"batchSize" toml:"batchSize" yaml:"batchSize"`
}

// ReportsConfig points at an optional user report catalog
type ReportsConfig struct {
	File string `json:"file" mapstructure:"file" toml:"file" yaml:"file"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format     string `json:"format" mapstructure:"format" toml:"format" yaml:"format"`
	Level      string `json:"level" mapstructure:"level" toml:"level" yaml:"level"`
	File       string `json:"file" mapstructure:"file" toml:"file" yaml:"file"`
	MaxSize    string `json:"maxSize" mapstructure:"maxSize" toml:"maxSize" yaml:"maxSize"`
	MaxBackups int    `json:"maxBackups" mapstructure:"maxBackups" toml:"maxBackups" yaml:"maxBackups"`
}

// MetricsConfig contains metrics configuration
type MetricsConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled" toml:"enabled" yaml:"enabled"`
	Endpoint string `json:"endpoint" mapstructure:"endpoint" toml:"endpoint" yaml:"endpoint"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentVersion,
		Database: DatabaseConfig{
			Path:          "ecommerce.db",
			BusyTimeoutMs: 5000,
		},
		Server: ServerConfig{
			Host:               "localhost",
			Port:               5000,
			Gzip:               true,
			ReadTimeoutSec:     15,
			WriteTimeoutSec:    15,
			IdleTimeoutSec:     60,
			ShutdownTimeoutSec: 10,
		},
		API: APIConfig{
			DefaultPerPage: 10,
			MaxPerPage:     1000,
		},
		Loader: LoaderConfig{
			UsersCSV:  "archive/users.csv",
			OrdersCSV: "archive/orders.csv",
			BatchSize: 1000,
		},
		Logging: LoggingConfig{
			Format:     "human",
			Level:      "info",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
		Metrics: MetricsConfig{
			Enabled:  true,
			Endpoint: "/metrics",
		},
	}
}

// LoadConfig builds the effective configuration. When path is empty an
// ecomapi.{json,toml,yaml} file in the working directory is used if present.
// Environment variables override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ecomapi")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override keys that are
// absent from the config file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("version", d.Version)

	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.busyTimeoutMs", d.Database.BusyTimeoutMs)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.staticDir", d.Server.StaticDir)
	v.SetDefault("server.gzip", d.Server.Gzip)
	v.SetDefault("server.readTimeoutSec", d.Server.ReadTimeoutSec)
	v.SetDefault("server.writeTimeoutSec", d.Server.WriteTimeoutSec)
	v.SetDefault("server.idleTimeoutSec", d.Server.IdleTimeoutSec)
	v.SetDefault("server.shutdownTimeoutSec", d.Server.ShutdownTimeoutSec)

	v.SetDefault("api.defaultPerPage", d.API.DefaultPerPage)
	v.SetDefault("api.maxPerPage", d.API.MaxPerPage)

	v.SetDefault("loader.usersCsv", d.Loader.UsersCSV)
	v.SetDefault("loader.ordersCsv", d.Loader.OrdersCSV)
	v.SetDefault("loader.batchSize", d.Loader.BatchSize)

	v.SetDefault("reports.file", d.Reports.File)

	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.endpoint", d.Metrics.Endpoint)
}

// Addr returns the host:port the HTTP server listens on
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != CurrentVersion {
		return &ConfigError{Field: "version", Message: fmt.Sprintf("unsupported config version %d", c.Version)}
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return &ConfigError{Field: "database.path", Message: "must not be empty"}
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return &ConfigError{Field: "server.port", Message: "must be between 0 and 65535"}
	}
	if c.API.DefaultPerPage < 1 {
		return &ConfigError{Field: "api.defaultPerPage", Message: "must be at least 1"}
	}
	if c.API.MaxPerPage < 0 {
		return &ConfigError{Field: "api.maxPerPage", Message: "must not be negative"}
	}
	if c.API.MaxPerPage > 0 && c.API.MaxPerPage < c.API.DefaultPerPage {
		return &ConfigError{Field: "api.maxPerPage", Message: "must not be below api.defaultPerPage"}
	}
	if c.Loader.BatchSize < 1 {
		return &ConfigError{Field: "loader.batchSize", Message: "must be at least 1"}
	}
	switch c.Logging.Format {
	case "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'human' or 'json'"}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Endpoint, "/") {
		return &ConfigError{Field: "metrics.endpoint", Message: "must start with '/'"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
