package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete nfsfh configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (NFSFH_*)
//  3. Configuration file (YAML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Handles controls handle composition and resolution
	Handles HandlesConfig `mapstructure:"handles" yaml:"handles"`

	// Cache sizes the path cache and selects its hint store
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Search throttles uncached tree searches
	Search SearchConfig `mapstructure:"search" yaml:"search"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// HandlesConfig controls the handle codec.
type HandlesConfig struct {
	// Root is the export root; handles are composed relative to it
	Root string `mapstructure:"root" yaml:"root" validate:"required,startswith=/"`

	// MaxDepth limits the number of path components a handle records
	MaxDepth int `mapstructure:"max_depth" yaml:"max_depth" validate:"min=1,max=51"`

	// Generation selects how generation numbers are obtained
	// Valid values: auto, native, query, inode
	Generation string `mapstructure:"generation" yaml:"generation" validate:"required,oneof=auto native query inode"`
}

// CacheConfig sizes the path cache.
type CacheConfig struct {
	// Capacity is the number of (device, inode) -> path slots
	Capacity int `mapstructure:"capacity" yaml:"capacity" validate:"min=1"`

	// Hints selects where the cache is persisted between runs
	Hints HintsConfig `mapstructure:"hints" yaml:"hints"`
}

// HintsConfig specifies the hint store.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type HintsConfig struct {
	// Type specifies which hint store implementation to use
	// Valid values: none, memory, badger
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=none memory badger"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`
}

// SearchConfig throttles uncached searches.
type SearchConfig struct {
	// RateLimit is the sustained number of uncached searches per second.
	// 0 disables throttling.
	RateLimit uint `mapstructure:"rate_limit" yaml:"rate_limit"`

	// Burst is the number of searches admitted at once
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// MetricsConfig controls the Prometheus HTTP endpoint.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port serving /metrics
	Port int `mapstructure:"port" yaml:"port" validate:"min=1,max=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (NFSFH_*)
//  2. Configuration file
//  3. Default values
//
// An empty configPath uses the default location; a missing file there is
// not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// envKeys lists the scalar settings that can be set from the environment.
var envKeys = []string{
	"logging.level",
	"logging.output",
	"handles.root",
	"handles.max_depth",
	"handles.generation",
	"cache.capacity",
	"cache.hints.type",
	"search.rate_limit",
	"search.burst",
	"metrics.enabled",
	"metrics.port",
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: NFSFH_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("NFSFH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only sees keys viper already knows about; binding them
	// lets environment variables work without a config file.
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}

	// Default location: $XDG_CONFIG_HOME/nfsfh/config.yaml
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nfsfh")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "nfsfh")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
