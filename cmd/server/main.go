// Command server runs the HTTP edge process (C12): the four
// engagement/feed endpoints, the session lifecycle's expiry sweep, and
// a lazily-reconnecting event producer (spec §6.1, §6.2, §4.6).
package main

import (
	"context"
	"os"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"

	appconfig "github.com/bionicotaku/lingo-feed-ranker/internal/config"
	"github.com/bionicotaku/lingo-feed-ranker/internal/controllers"
	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/session"
)

// app bundles the HTTP server with the background expiry worker so
// both start and stop with the same kratos.App lifecycle.
type app struct {
	cfg      appconfig.Config
	log      *log.Helper
	handler  *controllers.Handler
	producer *events.Producer
	expiry   *session.ExpiryWorker
}

func newApp(cfg appconfig.Config, logger log.Logger, handler *controllers.Handler, producer *events.Producer, expiry *session.ExpiryWorker) *app {
	return &app{cfg: cfg, log: log.NewHelper(logger), handler: handler, producer: producer, expiry: expiry}
}

func (a *app) httpServer() *kratoshttp.Server {
	srv := kratoshttp.NewServer(kratoshttp.Address(a.cfg.HTTPAddr))
	a.handler.RegisterRoutes(srv)
	return srv
}

func main() {
	logger := log.With(log.NewStdLogger(os.Stdout),
		"service.name", "lingo-feed-ranker",
		"service.component", "server",
	)
	helper := log.NewHelper(logger)

	cfg, err := appconfig.Load(logger)
	if err != nil {
		helper.Fatalw("msg", "config load failed", "error", err)
	}
	cfg.Apply()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, cleanup, err := wireApp(ctx, cfg, logger)
	if err != nil {
		helper.Fatalw("msg", "wire app failed", "error", err)
	}
	defer cleanup()

	expiryCtx, stopExpiry := context.WithCancel(ctx)
	defer stopExpiry()
	go a.expiry.Run(expiryCtx)

	httpSrv := a.httpServer()
	a.log.Infow("msg", "server starting", "addr", cfg.HTTPAddr)

	kapp := kratos.New(
		kratos.Name("lingo-feed-ranker"),
		kratos.Logger(logger),
		kratos.Server(httpSrv),
		kratos.BeforeStop(func(context.Context) error {
			stopExpiry()
			return nil
		}),
	)

	if err := kapp.Run(); err != nil {
		helper.Fatalw("msg", "app run failed", "error", err)
	}
}
