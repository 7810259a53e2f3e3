// Package main implements the entry point for the capsule API server,
// which lets users author time capsules for scheduled future delivery to
// their recipients.
package main

import (
	"context"
	"fmt"
	"log"

	"github.com/phrazzld/capsule-api/internal/config"
	"github.com/phrazzld/capsule-api/internal/platform/logger"
	"github.com/phrazzld/capsule-api/internal/platform/postgres"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}
	appLogger.Info("configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	ctx := context.Background()

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := postgres.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	appLogger.Info("database migrations applied")

	app, err := newApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	app.startBackground()
	defer app.stopBackground()

	return app.startHTTPServer(ctx, app.setupRouter())
}
