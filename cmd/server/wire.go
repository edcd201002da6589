//go:build wireinject

// This file documents the dependency graph google/wire would generate
// for the HTTP edge process. It is never compiled (see wire_gen.go);
// kept as the single source of truth for what `wire` would produce if
// its codegen ran against this package, the same convention the
// teacher's internal/controllers/init.go ProviderSet follows.
package main

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"

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

func wireApp(ctx context.Context, cfg config.Config, logger log.Logger) (*app, func(), error) {
	panic(wire.Build(
		infra.NewPostgresPool,
		infra.NewRedisClient,
		infra.NewWatermillLogger,
		infra.NatsConfig,
		profile.NewRepository,
		profile.NewPostRepository,
		profile.NewStatsRepository,
		sessionstore.NewRepository,
		interest.New,
		creator.New,
		metrics.New,
		session.NewService,
		feed.New,
		events.NewProducer,
		controllers.NewHandler,
		newApp,
	))
}
