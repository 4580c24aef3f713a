// Package config handles application configuration and environment loading.
package config

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the configuration for the command service and CLI.
// Values come from an optional YAML file first, then environment
// variables, which take precedence.
type Config struct {
	MetastorePath   string `yaml:"metastore_path"`   // path to the SQLite metastore file
	DefaultFS       string `yaml:"default_fs"`       // default filesystem URI, e.g. hdfs://namenode:8020
	WarehouseDir    string `yaml:"warehouse_dir"`    // root URI for managed table locations
	DefaultDatabase string `yaml:"default_database"` // session database for unqualified names
	ListenAddr      string `yaml:"listen_addr"`      // HTTP listen address (default ":8080")
	LogLevel        string `yaml:"log_level"`        // debug, info, warn, error (default "info")

	// Rate limiting for the HTTP API.
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // sustained requests per second (default 100)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // burst capacity (default 200)
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load builds the configuration from an optional YAML file plus environment
// variables. filePath may be empty, in which case TABLECMD_CONFIG is
// consulted; a missing file is not an error.
func Load(filePath string) (*Config, error) {
	cfg := &Config{}

	if filePath == "" {
		filePath = os.Getenv("TABLECMD_CONFIG")
	}
	if filePath != "" {
		if err := loadFile(cfg, filePath); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if _, err := url.Parse(c.DefaultFS); err != nil {
		return fmt.Errorf("DEFAULT_FS is not a valid URI: %w", err)
	}
	if c.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must not be negative")
	}
	if c.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must not be negative")
	}
	return nil
}

func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides file values with environment variables when set.
func applyEnv(cfg *Config) {
	if v := os.Getenv("METASTORE_PATH"); v != "" {
		cfg.MetastorePath = v
	}
	if v := os.Getenv("DEFAULT_FS"); v != "" {
		cfg.DefaultFS = v
	}
	if v := os.Getenv("WAREHOUSE_DIR"); v != "" {
		cfg.WarehouseDir = v
	}
	if v := os.Getenv("DEFAULT_DATABASE"); v != "" {
		cfg.DefaultDatabase = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.MetastorePath == "" {
		cfg.MetastorePath = "tablecmd_meta.sqlite"
	}
	if cfg.DefaultFS == "" {
		cfg.DefaultFS = "file:///"
	}
	if cfg.WarehouseDir == "" {
		cfg.WarehouseDir = "file:///tmp/warehouse"
	}
	if cfg.DefaultDatabase == "" {
		cfg.DefaultDatabase = "default"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 100
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 200
	}
}

// LoadDotEnv reads a .env file and sets any variables not already in the
// environment. Lines must be in KEY=VALUE format. Comments (#) and blank
// lines are skipped.
func LoadDotEnv(path string) error {
	f, err := os.Open(path) //nolint:gosec // path is caller-controlled
	if err != nil {
		if os.IsNotExist(err) {
			return nil // .env not found is not an error
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = stripQuotes(strings.TrimSpace(value))
		// Env vars already present take precedence.
		if os.Getenv(key) == "" {
			if err := os.Setenv(key, value); err != nil {
				return fmt.Errorf("setenv %s: %w", key, err)
			}
		}
	}
	return scanner.Err()
}

// stripQuotes removes surrounding double or single quotes from a value.
// Only strips if both the first and last characters are matching quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
