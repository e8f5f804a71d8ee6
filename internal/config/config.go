// Package config loads the service configuration.
//
// Values are resolved in layers, each overriding the previous one:
// built-in defaults, a YAML or TOML file checked against an embedded CUE
// schema, then environment variables and command-line flags bound through
// viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/roach88/nexus/internal/model"
)

// DefaultDatabaseFile is the database file name inside DatabaseLocation.
const DefaultDatabaseFile = "nexus.db"

// Config holds all configuration for the service.
type Config struct {
	DatabaseLocation string      `yaml:"database_location" toml:"database_location"`
	DatabaseFile     string      `yaml:"database_file" toml:"database_file"`
	HTTP             HTTPConfig  `yaml:"http" toml:"http"`
	Log              LogConfig   `yaml:"log" toml:"log"`
	Query            QueryConfig `yaml:"query" toml:"query"`
}

// HTTPConfig holds the listen address.
type HTTPConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// LogConfig selects the slog level and handler.
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// QueryConfig bounds read requests.
type QueryConfig struct {
	MaxLimit int `yaml:"max_limit" toml:"max_limit"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// Load reads the file at path, validates it and applies defaults.
// An empty path yields Default().
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var raw map[string]any
	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (want .yaml, .yml or .toml)", ext)
	}

	if err := validateSchema(raw); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	cfg.setDefaults()
	return &cfg, nil
}

// DatabasePath joins the database location and file name.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DatabaseLocation, c.DatabaseFile)
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Host, c.HTTP.Port)
}

func (c *Config) setDefaults() {
	if c.DatabaseLocation == "" {
		c.DatabaseLocation = "."
	}
	if c.DatabaseFile == "" {
		c.DatabaseFile = DefaultDatabaseFile
	}
	if c.HTTP.Host == "" {
		c.HTTP.Host = "127.0.0.1"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Query.MaxLimit == 0 {
		c.Query.MaxLimit = model.MaxLimit
	}
}
