package config

import (
	"context"
	"fmt"

	"github.com/marmos91/nfsfh/pkg/filehandle"
	"github.com/marmos91/nfsfh/pkg/handles"
	"github.com/marmos91/nfsfh/pkg/hints"
	"github.com/marmos91/nfsfh/pkg/hints/badger"
	"github.com/marmos91/nfsfh/pkg/metrics"
	"github.com/mitchellh/mapstructure"
)

// CreateHintStore creates the hint store selected by cfg.Type.
//
// Returns (nil, nil) for type "none".
func CreateHintStore(ctx context.Context, cfg *HintsConfig) (hints.Store, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "memory":
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return hints.NewMemoryStore(), nil
	case "badger":
		return createBadgerHintStore(ctx, cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown hint store type: %q (supported: none, memory, badger)", cfg.Type)
	}
}

// createBadgerHintStore creates a BadgerDB-backed hint store.
func createBadgerHintStore(ctx context.Context, options map[string]any) (hints.Store, error) {
	storeOpts, err := decodeBadgerOptions(options)
	if err != nil {
		return nil, err
	}

	store, err := badger.New(ctx, storeOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create badger hint store: %w", err)
	}
	return store, nil
}

func decodeBadgerOptions(options map[string]any) (badger.Config, error) {
	var storeOpts badger.Config
	if err := mapstructure.Decode(options, &storeOpts); err != nil {
		return badger.Config{}, fmt.Errorf("failed to decode badger hint store options: %w", err)
	}
	return storeOpts, nil
}

// NewManager builds a handle manager from configuration.
//
// fsys may be nil to serve the host filesystem. The manager owns the hint
// store it creates; callers release both with Manager.Close.
func NewManager(ctx context.Context, cfg *Config, fsys filehandle.FS, m metrics.HandleMetrics) (*handles.Manager, error) {
	mode, err := filehandle.ParseGenerationMode(cfg.Handles.Generation)
	if err != nil {
		return nil, err
	}

	store, err := CreateHintStore(ctx, &cfg.Cache.Hints)
	if err != nil {
		return nil, err
	}

	mgr, err := handles.New(ctx, handles.Config{
		FS:              fsys,
		Root:            cfg.Handles.Root,
		MaxDepth:        cfg.Handles.MaxDepth,
		Generation:      mode,
		CacheCapacity:   cfg.Cache.Capacity,
		SearchRateLimit: cfg.Search.RateLimit,
		SearchBurst:     cfg.Search.Burst,
		Metrics:         m,
		Hints:           store,
	})
	if err != nil {
		if store != nil {
			_ = store.Close()
		}
		return nil, fmt.Errorf("failed to create handle manager: %w", err)
	}

	return mgr, nil
}

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// HandleMetrics is the handle metrics collector (never nil, noop if disabled)
	HandleMetrics metrics.HandleMetrics

	// NFSMetrics is the MNT/LOOKUP request collector (never nil, noop if disabled)
	NFSMetrics metrics.NFSMetrics
}

// InitializeMetrics creates the metrics components described by cfg.
//
// When metrics are enabled this initializes the global registry, so it
// must be called at most once per process.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{
			HandleMetrics: metrics.OrNoop(nil),
			NFSMetrics:    metrics.NFSOrNoop(nil),
		}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server:        metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		HandleMetrics: metrics.NewHandleMetrics(),
		NFSMetrics:    metrics.NewNFSMetrics(),
	}
}
