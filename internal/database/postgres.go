package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/adamanr/worklog_service/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BuildPoolConfig turns the database section into a pgxpool configuration.
func BuildPoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	return poolCfg, nil
}

func NewPool(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := BuildPoolConfig(cfg.Database)
	if err != nil {
		logger.Error("Error building DB config", slog.String("error", err.Error()))
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		logger.Error("Error connecting to DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Error("Error pinging DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	logger.Info("Connected to DB successfully", slog.String("host", cfg.Database.Host))
	return pool, nil
}
