package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vjranagit/qprops/pkg/storage"
)

// Duration wraps time.Duration so YAML values like "30s" or "5m" decode.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config holds the application configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
}

// ServerConfig holds server configuration.
type ServerConfig struct {
	ListenAddr string   `yaml:"listen_addr"`
	Timeout    Duration `yaml:"timeout"`
}

// StoreConfig holds snapshot store configuration.
type StoreConfig struct {
	Path             string   `yaml:"path"`
	CompressionLevel int      `yaml:"compression_level"`
	CacheCapacity    int      `yaml:"cache_capacity"`
	CacheTTL         Duration `yaml:"cache_ttl"`
}

// DefaultConfig returns default configuration, honoring environment
// variable overrides.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: getEnv("LISTEN_ADDR", ":9411"),
			Timeout:    Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Path:             getEnv("STORE_PATH", "./data"),
			CompressionLevel: getEnvInt("COMPRESSION_LEVEL", 3),
			CacheCapacity:    getEnvInt("CACHE_CAPACITY", 128),
			CacheTTL:         Duration(5 * time.Minute),
		},
	}
}

// Load reads YAML configuration from path, layered over the defaults. An
// empty path returns the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToStoreConfig converts to storage.Config.
func (c *Config) ToStoreConfig() *storage.Config {
	return &storage.Config{
		Path:             c.Store.Path,
		CompressionLevel: c.Store.CompressionLevel,
		CacheCapacity:    c.Store.CacheCapacity,
		CacheTTL:         c.Store.CacheTTL.Std(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("server listen address is required")
	}

	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}

	if c.Store.CompressionLevel < 1 || c.Store.CompressionLevel > 4 {
		return fmt.Errorf("compression level must be between 1 and 4")
	}

	if c.Store.CacheCapacity < 1 {
		return fmt.Errorf("cache capacity must be at least 1")
	}

	return nil
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		if _, err := fmt.Sscanf(value, "%d", &intVal); err == nil {
			return intVal
		}
	}
	return defaultValue
}
