// Package config holds farmstore configuration. Everything has a
// compiled-in default; an optional config file (YAML or JSON) can
// override paths, retry tuning and logging for tests and diagnostics.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"farmstore/internal/logging"
)

const (
	// DatabaseFileName is the fixed relational database filename.
	DatabaseFileName = "farmstore.db"
	// KVFileName is the fixed key-value store filename.
	KVFileName = "farmstore_kv.json"
)

// Config holds all farmstore configuration.
type Config struct {
	// Storage paths
	DatabasePath string `yaml:"database_path" json:"database_path"`
	KVPath       string `yaml:"kv_path" json:"kv_path"`

	// Retry policy for storage operations
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Logging
	Logging logging.Options `yaml:"logging" json:"logging"`
}

// RetryConfig tunes the operation executor's bounded retry.
type RetryConfig struct {
	MaxRetries  int `yaml:"max_retries" json:"max_retries"`     // Attempts before giving up
	BaseDelayMS int `yaml:"base_delay_ms" json:"base_delay_ms"` // Backoff base; wait = base * attempt^2
}

// Default returns the configuration used when no config file is present:
// database and KV store under dataDir, default retry policy, logging off.
func Default(dataDir string) Config {
	return Config{
		DatabasePath: filepath.Join(dataDir, DatabaseFileName),
		KVPath:       filepath.Join(dataDir, KVFileName),
		Retry: RetryConfig{
			MaxRetries:  3,
			BaseDelayMS: 100,
		},
	}
}

// Load reads a config file and merges it over Default(dataDir).
// YAML and JSON are both accepted, keyed off the file extension.
func Load(path, dataDir string) (Config, error) {
	cfg := Default(dataDir)

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("unsupported config format: %s", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks that config values are within acceptable ranges.
func (c Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	if c.KVPath == "" {
		return fmt.Errorf("kv_path must not be empty")
	}
	if c.Retry.MaxRetries < 1 {
		return fmt.Errorf("retry.max_retries must be >= 1")
	}
	if c.Retry.BaseDelayMS < 0 {
		return fmt.Errorf("retry.base_delay_ms must be >= 0")
	}
	return nil
}
