package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/corkboard/internal/config"
	"github.com/phrazzld/corkboard/internal/platform/logger"
)

// loadAppConfig reads config.yaml from dir, overlaid by CORKBOARD_*
// environment variables.
func loadAppConfig(dir string) (*config.Config, error) {
	cfg, err := config.LoadFrom(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger installs the JSON logger at the configured level and
// reports the settings the process runs with.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	l.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"redis_enabled", cfg.Redis.Enabled,
		"automation_workers", cfg.Automation.WorkerCount,
		"automation_queue_size", cfg.Automation.QueueSize)
	return l, nil
}
