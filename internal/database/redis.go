package database

import (
	"context"
	"log/slog"

	"github.com/adamanr/worklog_service/internal/config"
	"github.com/redis/go-redis/v9"
)

func NewRedisConn(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.RedisAddr,
		Password: cfg.Redis.RedisPassword,
		DB:       cfg.Redis.RedisDB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", slog.String("error", err.Error()))
		_ = rdb.Close()
		return nil, err
	}

	logger.Info("Successfully connected to Redis", slog.String("addr", cfg.Redis.RedisAddr))

	return rdb, nil
}
