package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"inventory-reconciler/internal/db"
	"inventory-reconciler/internal/logging"
	"inventory-reconciler/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "info"
	}
	logger, err := logging.New(level, "console")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer logger.Sync()

	if err := run(logger); err != nil {
		logger.Error("migration failed", zap.Error(err))
		logger.Sync()
		if errors.Is(err, db.ErrMigrationLocked) {
			os.Exit(3)
		}
		os.Exit(1)
	}
	logger.Info("all migrations processed")
}

func run(logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, os.Getenv("DATABASE_URL"))
	if err != nil {
		return err
	}
	defer pool.Close()

	return db.Migrate(ctx, pool, migrations.FS, logger)
}
