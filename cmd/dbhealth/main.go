package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lpernett/godotenv"

	"github.com/tolu-adebayo/finsight/internal/common"
	"github.com/tolu-adebayo/finsight/internal/repository"
)

// dbhealth opens the configured job store, pings it and exits.
func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, pool, _, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("open job store", "error", err)
		os.Exit(1)
	}
	defer repository.Close(db, pool, logger)

	if err := repository.HealthCheck(ctx, db, 5*time.Second, logger); err != nil {
		logger.Error("job store health check failed", "error", err)
		os.Exit(1)
	}
	logger.Info("job store health OK", "dsn", cfg.Database.DSN)
}
