//go:build wireinject

// Documents the dependency graph google/wire would generate for the
// background worker process. Never compiled; see wire_gen.go for the
// real, hand-assembled initializer (spec SPEC_FULL §9).
package main

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

	"github.com/bionicotaku/lingo-feed-ranker/internal/config"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/infra"
	"github.com/bionicotaku/lingo-feed-ranker/internal/jobs"
	"github.com/bionicotaku/lingo-feed-ranker/internal/metrics"
	"github.com/bionicotaku/lingo-feed-ranker/internal/store/profile"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

func wireWorker(ctx context.Context, cfg config.Config, logger log.Logger) (*worker, func(), error) {
	panic(wire.Build(
		infra.NewPostgresPool,
		infra.NewRedisClient,
		infra.NewWatermillLogger,
		infra.NatsConfig,
		profile.NewRepository,
		profile.NewPostRepository,
		profile.NewStatsRepository,
		sessionstore.NewRepository,
		metrics.New,
		jobs.NewDecayJob,
		jobs.NewEvergreenJob,
		jobs.NewScheduler,
		events.NewEngagementConsumer,
		events.NewAggregator,
		events.NewRouter,
		newWorker,
	))
}
