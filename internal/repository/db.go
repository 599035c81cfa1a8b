package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder style and DDL flavor.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

type Config struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// Open connects to the job store backend named by the DSN. A postgres://
// DSN opens a pgx pool wrapped as *sql.DB (the pool is returned so callers
// can close it); anything else is treated as a SQLite file path or
// ":memory:".
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, *pgxpool.Pool, Dialect, error) {
	if strings.HasPrefix(cfg.DSN, "postgres://") || strings.HasPrefix(cfg.DSN, "postgresql://") {
		logger.Info("connecting to postgres job store")
		pc, err := pgxpool.ParseConfig(cfg.DSN)
		if err != nil {
			logger.Error("failed to parse database config", "error", err)
			return nil, nil, "", err
		}
		pc.MaxConns = cfg.MaxConns
		pc.MinConns = cfg.MinConns
		pc.MaxConnLifetime = cfg.MaxConnLifetime
		pc.MaxConnIdleTime = cfg.MaxConnIdleTime
		pc.ConnConfig.RuntimeParams["application_name"] = "finsight"

		dialCtx := ctx
		if cfg.DialTimeout > 0 {
			var cancel context.CancelFunc
			dialCtx, cancel = context.WithTimeout(ctx, cfg.DialTimeout)
			defer cancel()
		}
		pool, err := pgxpool.NewWithConfig(dialCtx, pc)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			return nil, nil, "", err
		}
		db := stdlib.OpenDBFromPool(pool)
		logger.Info("successfully connected to postgres job store")
		return db, pool, DialectPostgres, nil
	}

	logger.Info("opening sqlite job store", "path", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open sqlite database", "error", err)
		return nil, nil, "", err
	}
	// modernc sqlite is single-writer; serialize access through one conn.
	db.SetMaxOpenConns(1)
	return db, nil, DialectSQLite, nil
}

// Close closes the database connections gracefully
func Close(db *sql.DB, pool *pgxpool.Pool, logger *slog.Logger) {
	logger.Info("closing database connections")
	if db != nil {
		if err := db.Close(); err != nil {
			logger.Error("failed to close database", "error", err)
		}
	}
	if pool != nil {
		pool.Close()
	}
	logger.Info("database connections closed")
}

// HealthCheck pings the store to catch DSN issues early.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration, logger *slog.Logger) error {
	logger.Debug("pinging database")
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	logger.Debug("database ping successful")
	return nil
}
