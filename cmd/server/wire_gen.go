//go:build !wireinject

// Code generated by hand in the shape google/wire would produce from
// wire.go; wire's codegen binary is never invoked in this build (spec
// SPEC_FULL §9), so this file is the real, manually-assembled
// initializer.
package main

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/log"

	"github.com/bionicotaku/lingo-feed-ranker/internal/config"
	"github.com/bionicotaku/lingo-feed-ranker/internal/controllers"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/feed"
	"github.com/bionicotaku/lingo-feed-ranker/internal/infra"
	"github.com/bionicotaku/lingo-feed-ranker/internal/metrics"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/creator"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/interest"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/session"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

// wireApp builds the HTTP edge process's full object graph. Mirrors
// wire.Build's dependency order in wire.go: infra first, then
// repositories, then services, then the handler and app shell.
func wireApp(ctx context.Context, cfg config.Config, logger log.Logger) (*app, func(), error) {
	pgPool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("wire app: %w", err)
	}
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		pgPool.Close()
		return nil, nil, fmt.Errorf("wire app: %w", err)
	}

	wmLogger := infra.NewWatermillLogger(logger)
	natsCfg := infra.NatsConfig(cfg)
	publisher, err := events.NewPublisher(natsCfg, wmLogger)
	if err != nil {
		pgPool.Close()
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("wire app: %w", err)
	}

	// reconnect rebuilds the JetStream publisher from scratch; the
	// producer calls this lazily on a publish failure (spec §4.8
	// "lazy reconnect").
	reconnect := func() (message.Publisher, error) {
		return events.NewPublisher(natsCfg, wmLogger)
	}
	producer := events.NewProducer(publisher, reconnect, logger)

	profiles := profile.NewRepository(pgPool, logger)
	posts := profile.NewPostRepository(pgPool, logger)
	stats := profile.NewStatsRepository(pgPool, logger)
	sessions := sessionstore.NewRepository(rdb, logger)

	interests := interest.New(stats)
	creators := creator.New()
	metricsEngine := metrics.New(posts, stats)
	lifecycle := session.NewService(sessions, profiles, logger)
	assembler := feed.New(posts, stats, profiles)

	handler := controllers.NewHandler(controllers.Deps{
		Sessions:  sessions,
		Lifecycle: lifecycle,
		Posts:     posts,
		Interests: interests,
		Creators:  creators,
		Metrics:   metricsEngine,
		Producer:  producer,
		Feed:      assembler,
		Logger:    logger,
	})

	expiryWorker := session.NewExpiryWorker(lifecycle)

	a := newApp(cfg, logger, handler, producer, expiryWorker)

	cleanup := func() {
		_ = producer.Close()
		_ = rdb.Close()
		pgPool.Close()
	}
	return a, cleanup, nil
}
