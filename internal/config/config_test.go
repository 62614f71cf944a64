package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default configuration should validate: %v", err)
	}

	if cfg.Server.ListenAddr == "" {
		t.Error("Expected a default listen address")
	}
	if cfg.Store.CompressionLevel < 1 || cfg.Store.CompressionLevel > 4 {
		t.Errorf("Default compression level out of range: %d", cfg.Store.CompressionLevel)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
server:
  listen_addr: ":7001"
store:
  path: /var/lib/qprops
  compression_level: 2
  cache_capacity: 16
  cache_ttl: 1m
`)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.ListenAddr != ":7001" {
		t.Errorf("Expected listen_addr :7001, got %s", cfg.Server.ListenAddr)
	}
	if cfg.Store.Path != "/var/lib/qprops" {
		t.Errorf("Expected store path /var/lib/qprops, got %s", cfg.Store.Path)
	}
	if cfg.Store.CacheTTL.Std() != time.Minute {
		t.Errorf("Expected cache TTL 1m, got %s", cfg.Store.CacheTTL.Std())
	}

	// Unset fields keep their defaults.
	if cfg.Server.Timeout.Std() != 30*time.Second {
		t.Errorf("Expected default timeout, got %s", cfg.Server.Timeout.Std())
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := []byte(`
store:
  compression_level: 9
`)
	if err := os.WriteFile(path, raw, 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected validation error for compression level 9")
	}
}

func TestToStoreConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Store.Path = "/tmp/qprops"
	cfg.Store.CacheCapacity = 7

	sc := cfg.ToStoreConfig()
	if sc.Path != "/tmp/qprops" {
		t.Errorf("Expected path /tmp/qprops, got %s", sc.Path)
	}
	if sc.CacheCapacity != 7 {
		t.Errorf("Expected cache capacity 7, got %d", sc.CacheCapacity)
	}
}
