package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default("/data/app")

	if cfg.DatabasePath != filepath.Join("/data/app", DatabaseFileName) {
		t.Errorf("Unexpected database path: %s", cfg.DatabasePath)
	}
	if cfg.Retry.MaxRetries != 3 {
		t.Errorf("Expected default max_retries=3, got %d", cfg.Retry.MaxRetries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
retry:
  max_retries: 5
  base_delay_ms: 50
logging:
  enabled: true
  level: debug
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path, "/data/app")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Errorf("Expected max_retries=5, got %d", cfg.Retry.MaxRetries)
	}
	if cfg.Retry.BaseDelayMS != 50 {
		t.Errorf("Expected base_delay_ms=50, got %d", cfg.Retry.BaseDelayMS)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "debug" {
		t.Errorf("Logging overrides not applied: %+v", cfg.Logging)
	}
	// Unset fields keep their defaults.
	if cfg.DatabasePath != filepath.Join("/data/app", DatabaseFileName) {
		t.Errorf("Expected default database path, got %s", cfg.DatabasePath)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"retry":{"max_retries":2,"base_delay_ms":10}}`), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path, "/data/app")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Retry.MaxRetries != 2 {
		t.Errorf("Expected max_retries=2, got %d", cfg.Retry.MaxRetries)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default("/data/app")
	cfg.Retry.MaxRetries = 0
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation failure for max_retries=0")
	}

	cfg = Default("/data/app")
	cfg.DatabasePath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Expected validation failure for empty database_path")
	}
}

func TestLoadMissingFileFails(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "/data/app"); err == nil {
		t.Error("Expected error for missing config file")
	}
}
