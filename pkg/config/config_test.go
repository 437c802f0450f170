package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/filehandle/memfs"
	"github.com/marmos91/nfsfh/pkg/hints"
	"github.com/marmos91/nfsfh/pkg/hints/badger"
	"github.com/marmos91/nfsfh/pkg/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	t.Run("FileValues", func(t *testing.T) {
		path := writeConfig(t, `
logging:
  level: debug
  output: stderr
handles:
  root: /export
  max_depth: 20
  generation: inode
cache:
  capacity: 128
  hints:
    type: badger
    badger:
      path: /tmp/hints
      sync_writes: true
search:
  rate_limit: 50
metrics:
  enabled: true
  port: 9191
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "DEBUG", cfg.Logging.Level)
		assert.Equal(t, "stderr", cfg.Logging.Output)
		assert.Equal(t, "/export", cfg.Handles.Root)
		assert.Equal(t, 20, cfg.Handles.MaxDepth)
		assert.Equal(t, "inode", cfg.Handles.Generation)
		assert.Equal(t, 128, cfg.Cache.Capacity)
		assert.Equal(t, "badger", cfg.Cache.Hints.Type)
		assert.Equal(t, "/tmp/hints", cfg.Cache.Hints.Badger["path"])
		assert.Equal(t, uint(50), cfg.Search.RateLimit)
		assert.Equal(t, uint(50), cfg.Search.Burst, "burst defaults to the rate")
		assert.True(t, cfg.Metrics.Enabled)
		assert.Equal(t, 9191, cfg.Metrics.Port)
	})

	t.Run("EnvironmentOverridesFile", func(t *testing.T) {
		path := writeConfig(t, "logging:\n  level: info\nhandles:\n  root: /srv\n")
		t.Setenv("NFSFH_LOGGING_LEVEL", "warn")
		t.Setenv("NFSFH_HANDLES_ROOT", "/data")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "WARN", cfg.Logging.Level)
		assert.Equal(t, "/data", cfg.Handles.Root)
	})

	t.Run("EnvironmentWithoutFile", func(t *testing.T) {
		useTempConfigDir(t)
		t.Setenv("NFSFH_CACHE_CAPACITY", "64")
		t.Setenv("NFSFH_HANDLES_GENERATION", "inode")

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, 64, cfg.Cache.Capacity)
		assert.Equal(t, "inode", cfg.Handles.Generation)
	})

	t.Run("MissingDefaultFileUsesDefaults", func(t *testing.T) {
		useTempConfigDir(t)

		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, "/", cfg.Handles.Root)
		assert.Equal(t, "none", cfg.Cache.Hints.Type)
	})

	t.Run("ExplicitMissingFileFails", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("MalformedFile", func(t *testing.T) {
		_, err := Load(writeConfig(t, "logging: [unterminated"))
		assert.Error(t, err)
	})

	t.Run("InvalidValues", func(t *testing.T) {
		_, err := Load(writeConfig(t, "handles:\n  generation: random\n"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed")
	})
}

func TestApplyDefaults(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, "stdout", cfg.Logging.Output)
	assert.Equal(t, "/", cfg.Handles.Root)
	assert.Equal(t, filehandle.MaxDepth, cfg.Handles.MaxDepth)
	assert.Equal(t, "auto", cfg.Handles.Generation)
	assert.Equal(t, 4096, cfg.Cache.Capacity)
	assert.Equal(t, "none", cfg.Cache.Hints.Type)
	assert.NotNil(t, cfg.Cache.Hints.Badger)
	assert.Zero(t, cfg.Search.RateLimit)
	assert.Zero(t, cfg.Search.Burst)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Logging: LoggingConfig{Level: "error", Output: "/var/log/nfsfh.log"},
		Handles: HandlesConfig{Root: "/export", MaxDepth: 8, Generation: "QUERY"},
		Cache:   CacheConfig{Capacity: 10},
		Search:  SearchConfig{RateLimit: 5, Burst: 1},
	}
	ApplyDefaults(&cfg)

	assert.Equal(t, "ERROR", cfg.Logging.Level)
	assert.Equal(t, "/var/log/nfsfh.log", cfg.Logging.Output)
	assert.Equal(t, "/export", cfg.Handles.Root)
	assert.Equal(t, 8, cfg.Handles.MaxDepth)
	assert.Equal(t, "query", cfg.Handles.Generation)
	assert.Equal(t, 10, cfg.Cache.Capacity)
	assert.Equal(t, uint(1), cfg.Search.Burst)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"lowercase level", func(c *Config) { c.Logging.Level = "debug" }, ""},
		{"bad level", func(c *Config) { c.Logging.Level = "TRACE" }, "Level"},
		{"empty output", func(c *Config) { c.Logging.Output = "" }, "Output"},
		{"relative root", func(c *Config) { c.Handles.Root = "export" }, "Root"},
		{"depth too large", func(c *Config) { c.Handles.MaxDepth = 52 }, "MaxDepth"},
		{"depth zero", func(c *Config) { c.Handles.MaxDepth = 0 }, "MaxDepth"},
		{"bad generation", func(c *Config) { c.Handles.Generation = "random" }, "Generation"},
		{"zero capacity", func(c *Config) { c.Cache.Capacity = 0 }, "Capacity"},
		{"bad hint type", func(c *Config) { c.Cache.Hints.Type = "redis" }, "Type"},
		{"bad port", func(c *Config) { c.Metrics.Port = 70000 }, "Port"},
		{"burst without rate", func(c *Config) { c.Search.Burst = 10 }, "rate_limit"},
		{
			"badger without path",
			func(c *Config) {
				c.Cache.Hints.Type = "badger"
				c.Cache.Hints.Badger = map[string]any{}
			},
			"path is required",
		},
		{
			"badger in memory",
			func(c *Config) {
				c.Cache.Hints.Type = "badger"
				c.Cache.Hints.Badger = map[string]any{"in_memory": true}
			},
			"",
		},
		{
			"badger undecodable",
			func(c *Config) {
				c.Cache.Hints.Type = "badger"
				c.Cache.Hints.Badger = map[string]any{"path": []int{1}}
			},
			"decode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestCreateHintStore(t *testing.T) {
	ctx := context.Background()

	t.Run("None", func(t *testing.T) {
		store, err := CreateHintStore(ctx, &HintsConfig{Type: "none"})
		require.NoError(t, err)
		assert.Nil(t, store)
	})

	t.Run("Memory", func(t *testing.T) {
		store, err := CreateHintStore(ctx, &HintsConfig{Type: "memory"})
		require.NoError(t, err)
		assert.IsType(t, &hints.MemoryStore{}, store)
	})

	t.Run("Badger", func(t *testing.T) {
		store, err := CreateHintStore(ctx, &HintsConfig{
			Type:   "badger",
			Badger: map[string]any{"path": filepath.Join(t.TempDir(), "hints")},
		})
		require.NoError(t, err)
		assert.IsType(t, &badger.Store{}, store)
		require.NoError(t, store.Close())
	})

	t.Run("BadgerWithoutPath", func(t *testing.T) {
		_, err := CreateHintStore(ctx, &HintsConfig{Type: "badger"})
		assert.Error(t, err)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := CreateHintStore(ctx, &HintsConfig{Type: "redis"})
		assert.Error(t, err)
	})
}

func TestNewManager(t *testing.T) {
	ctx := context.Background()
	fsys := memfs.New(1)
	require.NoError(t, fsys.MkdirAll("/export/docs"))

	cfg := GetDefaultConfig()
	cfg.Handles.Root = "/export"
	cfg.Handles.Generation = "inode"
	cfg.Cache.Hints.Type = "memory"

	mgr, err := NewManager(ctx, cfg, fsys, nil)
	require.NoError(t, err)
	defer func() { _ = mgr.Close(ctx) }()

	assert.Equal(t, "/export", mgr.Root())
	assert.Equal(t, filehandle.GenerationInode, mgr.GenerationMode())

	h, err := mgr.Compose("/export/docs", true)
	require.NoError(t, err)
	path, err := mgr.DecomposeHandle(h)
	require.NoError(t, err)
	assert.Equal(t, "/export/docs", path)
}

func TestNewManager_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("BadGeneration", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Handles.Generation = "random"
		_, err := NewManager(ctx, cfg, memfs.New(1), nil)
		assert.Error(t, err)
	})

	t.Run("RelativeRoot", func(t *testing.T) {
		cfg := GetDefaultConfig()
		cfg.Handles.Root = "export"
		cfg.Handles.Generation = "inode"
		_, err := NewManager(ctx, cfg, memfs.New(1), nil)
		assert.Error(t, err)
	})
}

func TestInitializeMetrics_Disabled(t *testing.T) {
	res := InitializeMetrics(GetDefaultConfig())
	assert.Nil(t, res.Server)
	require.NotNil(t, res.HandleMetrics)
	res.HandleMetrics.RecordCacheLookup(true)
	require.NotNil(t, res.NFSMetrics)
	res.NFSMetrics.RecordRequest("LOOKUP", 0, 0)
}

func TestInitializeMetrics_Enabled(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Metrics.Enabled = true
	cfg.Metrics.Port = 9191

	res := InitializeMetrics(cfg)
	require.NotNil(t, res.Server)
	assert.Equal(t, 9191, res.Server.Port())

	res.NFSMetrics.RecordRequest("MNT", time.Millisecond, 0)
	res.HandleMetrics.RecordCacheLookup(true)

	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "nfsfh_requests_total")
	assert.Contains(t, names, "nfsfh_path_cache_lookups_total")
}
