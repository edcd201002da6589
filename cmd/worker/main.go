// Command worker runs the background-only process (C8, C11): the
// engagement-stats and hourly-aggregator event consumers, the hourly
// score-buffer flush, and the daily decay / two-hourly evergreen jobs
// (spec §4.8, §4.9, §5).
package main

import (
	"context"
	"os"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/robfig/cron/v3"

	appconfig "github.com/bionicotaku/lingo-feed-ranker/internal/config"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/jobs"
)

// worker bundles the event router, the decay/evergreen scheduler, and
// the hourly aggregator flush into one kratos.App lifecycle.
type worker struct {
	log        *log.Helper
	router     *message.Router
	scheduler  *jobs.Scheduler
	aggregator *events.Aggregator
	flushCron  *cron.Cron
}

func newWorker(logger log.Logger, router *message.Router, scheduler *jobs.Scheduler, aggregator *events.Aggregator) *worker {
	return &worker{log: log.NewHelper(logger), router: router, scheduler: scheduler, aggregator: aggregator, flushCron: cron.New()}
}

// routerServer adapts watermill's message.Router to kratos's
// transport.Server interface so it shares the app's lifecycle.
type routerServer struct {
	router *message.Router
}

func (s routerServer) Start(ctx context.Context) error {
	return s.router.Run(ctx)
}

func (s routerServer) Stop(context.Context) error {
	return s.router.Close()
}

// flushServer adapts the aggregator's hourly flush cron to
// transport.Server, draining the full buffer on Stop (spec §5
// "hourly aggregator flushes its buffer" on shutdown).
type flushServer struct {
	w *worker
}

func (s flushServer) Start(ctx context.Context) error {
	if err := s.w.aggregator.Hydrate(ctx); err != nil {
		s.w.log.WithContext(ctx).Errorw("msg", "aggregator hydrate failed", "error", err)
	}
	if _, err := s.w.flushCron.AddFunc("0 * * * *", func() {
		s.w.aggregator.Flush(context.Background())
	}); err != nil {
		return err
	}
	s.w.flushCron.Start()
	return nil
}

func (s flushServer) Stop(ctx context.Context) error {
	<-s.w.flushCron.Stop().Done()
	s.w.aggregator.FlushAll(ctx)
	return nil
}

func main() {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"service.name", "lingo-feed-ranker",
		"service.component", "worker",
	)
	helper := log.NewHelper(logger)

	cfg, err := appconfig.Load(logger)
	if err != nil {
		helper.Fatalw("msg", "config load failed", "error", err)
	}
	cfg.Apply()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	w, cleanup, err := wireWorker(ctx, cfg, logger)
	if err != nil {
		helper.Fatalw("msg", "wire worker failed", "error", err)
	}
	defer cleanup()

	kapp := kratos.New(
		kratos.Name("lingo-feed-ranker-worker"),
		kratos.Logger(logger),
		kratos.Server(
			routerServer{router: w.router},
			w.scheduler,
			flushServer{w: w},
		),
	)

	if err := kapp.Run(); err != nil {
		helper.Fatalw("msg", "worker run failed", "error", err)
	}
}
