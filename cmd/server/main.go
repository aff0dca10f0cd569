// Package main implements the entry point for the Dojang API server,
// which backs the TKDojang Taekwon-Do learning apps: learner profiles,
// belt progression, spaced-repetition study, and the community feedback
// board.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/tkdojang/dojang-api/internal/config"
	"github.com/tkdojang/dojang-api/internal/platform/logger"
	"github.com/tkdojang/dojang-api/internal/platform/postgres"
)

func main() {
	migrateOnly := flag.Bool("migrate-only", false,
		"apply pending database migrations and exit")
	healthcheck := flag.Bool("healthcheck", false,
		"probe the running server's health endpoint and exit")
	flag.Parse()

	if err := run(*migrateOnly, *healthcheck); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}

// run carries the whole startup sequence so main stays a thin flag shim
// and every failure path returns an error instead of exiting mid-function.
func run(migrateOnly, healthcheck bool) error {
	// A .env file is a local development convenience; deployments set the
	// environment directly, so a missing file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if healthcheck {
		// The probe is what container healthchecks invoke; keep its output
		// on stderr and its exit code meaningful.
		if err := probeHealth(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "health probe failed: %v\n", err)
			os.Exit(1)
		}
		return nil
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := openDatabase(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := postgres.MigrateUp(db, appLogger); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	if migrateOnly {
		appLogger.Info("migrations applied, exiting")
		return db.Close()
	}

	ctx := context.Background()
	app, err := newApplication(ctx, cfg, appLogger, db)
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	return app.Run(ctx)
}
