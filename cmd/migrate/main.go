package main

// Run database migrations:
//   go run ./cmd/migrate            apply pending migrations
//   go run ./cmd/migrate -down      revert the latest migration
//   go run ./cmd/migrate -version   print the applied version

import (
	"context"
	"flag"
	"os"

	"portfolio-backend/internal/shared/config"
	"portfolio-backend/internal/shared/storage/db"
	"portfolio-backend/internal/shared/telemetry"
)

func main() {
	down := flag.Bool("down", false, "revert the latest migration")
	version := flag.Bool("version", false, "print the applied schema version")
	flag.Parse()

	cfg := config.Load()
	telemetry.Init(cfg.Env)
	os.Exit(run(context.Background(), cfg, *down, *version))
}

func run(ctx context.Context, cfg config.Config, down, version bool) int {
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
	if err != nil {
		telemetry.Error("migrate.connect_failed", map[string]any{"error": err})
		return 1
	}
	defer sqlDB.Close()

	switch {
	case version:
		v, err := db.MigrationVersion(ctx, sqlDB)
		if err != nil {
			telemetry.Error("migrate.version_failed", map[string]any{"error": err})
			return 1
		}
		telemetry.Info("migrate.version", map[string]any{"version": v})
	case down:
		if err := db.RollbackMigration(ctx, sqlDB); err != nil {
			telemetry.Error("migrate.down_failed", map[string]any{"error": err})
			return 1
		}
		telemetry.Info("migrate.down_done", nil)
	default:
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			telemetry.Error("migrate.failed", map[string]any{"error": err})
			return 1
		}
		telemetry.Info("migrate.done", nil)
	}
	return 0
}
