package commands

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/marmos91/nfsfh/internal/logger"
	"github.com/marmos91/nfsfh/pkg/config"
	"github.com/marmos91/nfsfh/pkg/handles"
	"github.com/marmos91/nfsfh/pkg/metrics"
)

// loadConfig loads the configuration named by --config, applies the --root
// override and initializes the logger.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return nil, err
	}

	if exportRoot != "" {
		abs, err := filepath.Abs(exportRoot)
		if err != nil {
			return nil, fmt.Errorf("invalid --root: %w", err)
		}
		cfg.Handles.Root = abs
		if err := config.Validate(cfg); err != nil {
			return nil, err
		}
	}

	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLogger configures the logger from configuration.
func InitLogger(cfg *config.Config) error {
	if err := logger.Configure(cfg.Logging.Level, cfg.Logging.Output); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// startMetrics creates the configured metrics collectors and, when metrics
// are enabled, serves them until ctx is cancelled.
func startMetrics(ctx context.Context, cfg *config.Config) *config.MetricsResult {
	res := config.InitializeMetrics(cfg)
	if res.Server != nil {
		go func() {
			if err := res.Server.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
	}
	return res
}

// openManager builds a handle manager over the host filesystem.
func openManager(ctx context.Context, cfg *config.Config, m metrics.HandleMetrics) (*handles.Manager, error) {
	return config.NewManager(ctx, cfg, nil, m)
}

// closeManager closes mgr, logging rather than returning the error so it
// can be deferred.
func closeManager(ctx context.Context, mgr *handles.Manager) {
	if err := mgr.Close(ctx); err != nil {
		logger.Error("Failed to close handle manager: %v", err)
	}
}
