//go:build !wireinject

// Code generated by hand in the shape google/wire would produce from
// wire.go; wire's codegen binary is never invoked in this build (spec
// SPEC_FULL §9).
package main

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/bionicotaku/lingo-feed-ranker/internal/config"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/infra"
	"github.com/bionicotaku/lingo-feed-ranker/internal/jobs"
	"github.com/bionicotaku/lingo-feed-ranker/internal/metrics"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

// wireWorker builds the background process's full object graph:
// infra, then repositories, then the event router's consumers, then
// the scheduler and worker shell (mirrors wire.go's wire.Build order).
func wireWorker(ctx context.Context, cfg config.Config, logger log.Logger) (*worker, func(), error) {
	pgPool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("wire worker: %w", err)
	}
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		pgPool.Close()
		return nil, nil, fmt.Errorf("wire worker: %w", err)
	}

	wmLogger := infra.NewWatermillLogger(logger)
	natsCfg := infra.NatsConfig(cfg)

	engagementSub, err := events.NewSubscriber(natsCfg, events.GroupEngagementStats, wmLogger)
	if err != nil {
		pgPool.Close()
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("wire worker: %w", err)
	}
	scoreSub, err := events.NewSubscriber(natsCfg, events.GroupHourlyAggregator, wmLogger)
	if err != nil {
		pgPool.Close()
		_ = rdb.Close()
		_ = engagementSub.Close()
		return nil, nil, fmt.Errorf("wire worker: %w", err)
	}

	profiles := profile.NewRepository(pgPool, logger)
	posts := profile.NewPostRepository(pgPool, logger)
	stats := profile.NewStatsRepository(pgPool, logger)
	sessions := sessionstore.NewRepository(rdb, logger)
	metricsEngine := metrics.New(posts, stats)

	counters := &events.RepositoryCounters{Posts: posts, Stats: stats}
	engagementConsumer := events.NewEngagementConsumer(counters, logger)
	aggregator := events.NewAggregator(sessions, posts, metricsEngine, logger)

	router, err := events.NewRouter(wmLogger, engagementSub, engagementConsumer, scoreSub, aggregator)
	if err != nil {
		pgPool.Close()
		_ = rdb.Close()
		_ = engagementSub.Close()
		_ = scoreSub.Close()
		return nil, nil, fmt.Errorf("wire worker: %w", err)
	}

	decayJob := jobs.NewDecayJob(profiles, logger)
	evergreenJob := jobs.NewEvergreenJob(posts, logger)
	scheduler, err := jobs.NewScheduler(decayJob, evergreenJob, logger)
	if err != nil {
		pgPool.Close()
		_ = rdb.Close()
		_ = engagementSub.Close()
		_ = scoreSub.Close()
		return nil, nil, fmt.Errorf("wire worker: %w", err)
	}

	w := newWorker(logger, router, scheduler, aggregator)

	cleanup := func() {
		_ = engagementSub.Close()
		_ = scoreSub.Close()
		_ = rdb.Close()
		pgPool.Close()
	}
	return w, cleanup, nil
}
