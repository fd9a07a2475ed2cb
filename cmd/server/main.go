// Package main runs the corkboard collaboration server: the websocket
// gateway, the collaboration HTTP endpoints and the automation workers.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/phrazzld/corkboard/internal/platform/postgres"
)

func main() {
	migrateCmd := flag.String("migrate", "", "Run database migrations (up, down, status, version, reset) and exit")
	configDir := flag.String("config", ".", "Directory searched for config.yaml")
	flag.Parse()

	if err := run(context.Background(), *configDir, *migrateCmd); err != nil {
		slog.Error("corkboard server failed", "error", err)
		os.Exit(1)
	}
}

// run loads configuration, connects the database and either runs a
// migration command or serves until a shutdown signal arrives.
func run(ctx context.Context, configDir, migrateCmd string) error {
	cfg, err := loadAppConfig(configDir)
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	db, err := setupAppDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}

	if migrateCmd != "" {
		defer func() {
			if cerr := db.Close(); cerr != nil {
				logger.Error("Error closing database connection", "error", cerr)
			}
		}()
		if err := postgres.Migrate(ctx, db, migrateCmd, logger); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		return nil
	}

	rdb, err := setupRedis(ctx, cfg, logger)
	if err != nil {
		_ = db.Close()
		return err
	}

	app, err := newApplication(ctx, cfg, logger, db, rdb)
	if err != nil {
		_ = db.Close()
		if rdb != nil {
			_ = rdb.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	return app.Run(ctx)
}
