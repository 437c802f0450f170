package config

import (
	"strings"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/metrics"
	"github.com/marmos91/nfsfh/pkg/pathcache"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Zero values are replaced with defaults; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyHandlesDefaults(&cfg.Handles)
	applyCacheDefaults(&cfg.Cache)
	applySearchDefaults(&cfg.Search)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

func applyHandlesDefaults(cfg *HandlesConfig) {
	if cfg.Root == "" {
		cfg.Root = "/"
	}
	if cfg.MaxDepth == 0 {
		cfg.MaxDepth = filehandle.MaxDepth
	}
	if cfg.Generation == "" {
		cfg.Generation = string(filehandle.GenerationAuto)
	}
	cfg.Generation = strings.ToLower(cfg.Generation)
}

func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Capacity == 0 {
		cfg.Capacity = pathcache.DefaultCapacity
	}
	if cfg.Hints.Type == "" {
		cfg.Hints.Type = "none"
	}
	if cfg.Hints.Badger == nil {
		cfg.Hints.Badger = make(map[string]any)
	}
}

// applySearchDefaults raises a missing burst to the rate, so a configured
// limit admits at least one search per tick.
func applySearchDefaults(cfg *SearchConfig) {
	if cfg.RateLimit > 0 && cfg.Burst == 0 {
		cfg.Burst = cfg.RateLimit
	}
}

func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = metrics.DefaultPort
	}
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for generating sample configuration files and for tests.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Cache: CacheConfig{
			Hints: HintsConfig{
				Type:   "none",
				Badger: map[string]any{"path": "/var/lib/nfsfh/hints"},
			},
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
