// Package infra wires the process-wide connections the rest of the
// module builds on: the Postgres pool, the Redis client, and the
// watermill/NATS publisher and subscribers (spec SPEC_FULL §6 "(NEW)
// Transport" / "(NEW) Event bus"). Everything here is a thin
// constructor; retry/backoff policy lives in the underlying driver.
package infra

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/bionicotaku/lingo-feed-ranker/internal/config"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
)

// NewPostgresPool opens the pgxpool backing every JSONB-document
// repository (store/profile).
func NewPostgresPool(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("infra: new postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("infra: ping postgres: %w", err)
	}
	return pool, nil
}

// NewRedisClient opens the client backing the fast store
// (store/session).
func NewRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("infra: ping redis: %w", err)
	}
	return rdb, nil
}

// NewWatermillLogger adapts kratos's structured logger to watermill's
// LoggerAdapter, matching the style of the teacher's log.Helper
// wrapping everywhere else in the module.
func NewWatermillLogger(logger kratoslog.Logger) watermill.LoggerAdapter {
	return watermillKratosAdapter{logger: logger, log: kratoslog.NewHelper(logger)}
}

type watermillKratosAdapter struct {
	logger kratoslog.Logger
	log    *kratoslog.Helper
}

func (a watermillKratosAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.log.Errorw("msg", msg, "error", err, "fields", fields)
}

func (a watermillKratosAdapter) Info(msg string, fields watermill.LogFields) {
	a.log.Infow("msg", msg, "fields", fields)
}

func (a watermillKratosAdapter) Debug(msg string, fields watermill.LogFields) {
	a.log.Debugw("msg", msg, "fields", fields)
}

func (a watermillKratosAdapter) Trace(msg string, fields watermill.LogFields) {
	a.log.Debugw("msg", msg, "fields", fields)
}

func (a watermillKratosAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	wrapped := kratoslog.With(a.logger, "fields", fields)
	return watermillKratosAdapter{logger: wrapped, log: kratoslog.NewHelper(wrapped)}
}

// NatsConfig builds the events.NatsConfig shared by every publisher
// and subscriber the process opens.
func NatsConfig(cfg config.Config) events.NatsConfig {
	return events.NatsConfig{
		URL:           cfg.NatsURL,
		MaxReconnects: -1,
		ReconnectWait: 0,
	}
}
