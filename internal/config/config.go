// Package config loads application configuration from YAML files with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"formbase/internal/notify"
)

// Config holds the application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Notify  NotifyConfig  `yaml:"notify"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects and configures the response storage backend.
type StorageConfig struct {
	Backend  string         `yaml:"backend"` // "mongo" or "postgres"
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
}

type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NotifyConfig configures the notification dispatcher.
type NotifyConfig struct {
	Enabled bool          `yaml:"enabled"`
	NATS    NATSConfig    `yaml:"nats"`
	Rules   []notify.Rule `yaml:"rules"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	Stream        string `yaml:"stream"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json

	// ErrorsToStderr mirrors warn and error records to stderr.
	ErrorsToStderr bool `yaml:"errors_to_stderr"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Backend: "mongo",
			Mongo: MongoConfig{
				URI:        "mongodb://localhost:27017",
				Database:   "formbase",
				Collection: "responses",
			},
			Postgres: PostgresConfig{
				DSN: "postgres://localhost:5432/formbase",
			},
		},
		Notify: NotifyConfig{
			Enabled: false,
			NATS: NATSConfig{
				URL:           "nats://localhost:4222",
				Stream:        "RESPONSES",
				SubjectPrefix: "responses",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration in order: defaults, YAML file,
// environment overrides, validation. A missing file is not an error;
// the defaults simply stand.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if val := os.Getenv("PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Server.Port = port
		}
	}
	if val := os.Getenv("STORAGE_BACKEND"); val != "" {
		c.Storage.Backend = val
	}
	if val := os.Getenv("MONGO_URI"); val != "" {
		c.Storage.Mongo.URI = val
	}
	if val := os.Getenv("MONGO_DATABASE"); val != "" {
		c.Storage.Mongo.Database = val
	}
	if val := os.Getenv("POSTGRES_DSN"); val != "" {
		c.Storage.Postgres.DSN = val
	}
	if val := os.Getenv("NATS_URL"); val != "" {
		c.Notify.NATS.URL = val
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Storage.Backend {
	case "mongo":
		if c.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.mongo.uri is required")
		}
		if c.Storage.Mongo.Database == "" {
			return fmt.Errorf("storage.mongo.database is required")
		}
	case "postgres":
		if c.Storage.Postgres.DSN == "" {
			return fmt.Errorf("storage.postgres.dsn is required")
		}
	default:
		return fmt.Errorf("unknown storage backend: %s (must be mongo or postgres)", c.Storage.Backend)
	}

	if c.Notify.Enabled && c.Notify.NATS.URL == "" {
		return fmt.Errorf("notify.nats.url is required when notify is enabled")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logging.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (must be text or json)", c.Logging.Format)
	}

	return nil
}
