package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Store    StoreConfig    `toml:"store"`
	Log      LogConfig      `toml:"log"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StoreConfig selects the durable medium backing user records and how it is accessed.
type StoreConfig struct {
	Driver        string  `toml:"driver"` // sqlite, bolt or memory
	Prefix        string  `toml:"prefix"`
	LatencyMS     int     `toml:"latency_ms"`
	RatePerSecond float64 `toml:"rate_per_second"`
	QuotaBytes    int     `toml:"quota_bytes"`
	BoltPath      string  `toml:"bolt_path"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Latency returns the configured simulated medium latency.
func (s StoreConfig) Latency() time.Duration {
	return time.Duration(s.LatencyMS) * time.Millisecond
}

// Validate reports whether the store section names a known driver and sane limits.
func (s StoreConfig) Validate() error {
	switch s.Driver {
	case "sqlite", "bolt", "memory":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownDriver, s.Driver)
	}
	if s.LatencyMS < 0 || s.QuotaBytes < 0 || s.RatePerSecond < 0 {
		return fmt.Errorf("%w: store limits must not be negative", ErrInvalidConfig)
	}
	if s.Driver == "bolt" && s.BoltPath == "" {
		return fmt.Errorf("%w: bolt driver requires bolt_path", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Store.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
