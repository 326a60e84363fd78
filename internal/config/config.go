package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/chronicle-banner/config.yaml"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Config holds all chronicle-banner configuration. Every field can also be
// set through the environment variable named in its env tag; environment
// values win over the file.
type Config struct {
	Storage  StorageConfig  `yaml:"storage"`
	Endpoint EndpointConfig `yaml:"endpoint"`
	Banner   BannerConfig   `yaml:"banner"`
	Tracking TrackingConfig `yaml:"tracking"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type StorageConfig struct {
	Backend           string      `yaml:"backend" env:"CHRONICLE_STORAGE_BACKEND"`
	Path              string      `yaml:"path" env:"CHRONICLE_STORAGE_PATH"`
	SQLiteFile        string      `yaml:"sqlite_file" env:"CHRONICLE_SQLITE_FILE"`
	SQLiteJournalMode string      `yaml:"sqlite_journal_mode" env:"CHRONICLE_SQLITE_JOURNAL_MODE"`
	JSONFile          string      `yaml:"json_file" env:"CHRONICLE_JSON_FILE"`
	Redis             RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"CHRONICLE_REDIS_ADDR"`
	Username string `yaml:"username" env:"CHRONICLE_REDIS_USERNAME"`
	Password string `yaml:"password" env:"CHRONICLE_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"CHRONICLE_REDIS_DB"`
}

type EndpointConfig struct {
	BaseURL        string `yaml:"base_url" env:"CHRONICLE_BASE_URL"`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"CHRONICLE_TIMEOUT_SECONDS"`
	UserAgent      string `yaml:"user_agent" env:"CHRONICLE_USER_AGENT"`
}

type BannerConfig struct {
	ClassName  string   `yaml:"class_name" env:"CHRONICLE_BANNER_CLASS"`
	Containers []string `yaml:"containers" env:"CHRONICLE_BANNER_CONTAINERS" envSeparator:";"`
}

type TrackingConfig struct {
	ExcludeTables []string `yaml:"exclude_tables" env:"CHRONICLE_EXCLUDE_TABLES"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"CHRONICLE_LOG_LEVEL"`
	Format string `yaml:"format" env:"CHRONICLE_LOG_FORMAT"`
}

// Load reads a YAML config file at path, merges it over defaults and then
// applies environment overrides. Returns an error if the file cannot be read
// or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overrides cfg with any CHRONICLE_* variables that are set.
func ApplyEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// Validate checks values that have a fixed set of choices.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("invalid storage backend %q (use sqlite, file or redis)", c.Storage.Backend)
	}
	if c.Endpoint.TimeoutSeconds < 0 {
		return fmt.Errorf("endpoint timeout must not be negative")
	}
	return nil
}

// Timeout returns the count query timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Endpoint.TimeoutSeconds) * time.Second
}

// SQLitePath returns the resolved SQLite database file path.
func (c *Config) SQLitePath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.SQLiteFile), nil
}

// JSONPath returns the resolved JSON store file path.
func (c *Config) JSONPath() (string, error) {
	dir, err := expandPath(c.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, c.Storage.JSONFile), nil
}

// expandPath replaces a leading ~ with the user's home directory.
func expandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := expandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		if err := ApplyEnv(cfg); err != nil {
			return nil, err
		}
		return cfg, cfg.Validate()
	}

	return Load(path)
}
