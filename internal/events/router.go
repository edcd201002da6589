package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	natsgo "github.com/nats-io/nats.go"
	"github.com/go-kratos/kratos/v2/log"
)

// NatsConfig configures the JetStream connection shared by every
// producer and consumer in this package.
type NatsConfig struct {
	URL           string
	MaxReconnects int
	ReconnectWait time.Duration
}

func natsOptions(cfg NatsConfig, logger watermill.LoggerAdapter) []natsgo.Option {
	return []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("nats disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("nats reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}
}

// NewPublisher opens a JetStream-backed watermill publisher.
func NewPublisher(cfg NatsConfig, logger watermill.LoggerAdapter) (message.Publisher, error) {
	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOptions(cfg, logger),
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: false, AutoProvision: true, TrackMsgId: true},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("events: new publisher: %w", err)
	}
	return pub, nil
}

// NewSubscriber opens a JetStream-backed watermill subscriber bound to
// durableGroup — the consumer group names used by §4.8's two
// consumers (engagement-stats, hourly-aggregator).
func NewSubscriber(cfg NatsConfig, durableGroup string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	sub, err := wmNats.NewSubscriber(wmNats.SubscriberConfig{
		URL:              cfg.URL,
		NatsOptions:      natsOptions(cfg, logger),
		Unmarshaler:      &wmNats.NATSMarshaler{},
		SubscribersCount: 1,
		QueueGroupPrefix: durableGroup,
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: true,
			DurablePrefix: durableGroup,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("events: new subscriber for group %s: %w", durableGroup, err)
	}
	return sub, nil
}

// NewRouter builds the watermill message.Router wiring the engagement
// stats consumer and hourly aggregator onto their topics/subscribers,
// with the standard retry and panic-recovery middleware (spec §4.8,
// §5: "consumers yield between messages").
func NewRouter(
	logger watermill.LoggerAdapter,
	engagementSub message.Subscriber,
	engagementConsumer *EngagementConsumer,
	scoreSub message.Subscriber,
	aggregator *Aggregator,
) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, fmt.Errorf("events: new router: %w", err)
	}
	router.AddMiddleware(
		middleware.Recoverer,
		middleware.Retry{MaxRetries: 3, InitialInterval: 100 * time.Millisecond}.Middleware,
	)

	router.AddNoPublisherHandler(GroupEngagementStats, TopicEngagementEvents, engagementSub, func(msg *message.Message) error {
		_, err := engagementConsumer.Handle(msg)
		return err
	})
	router.AddNoPublisherHandler(GroupHourlyAggregator, TopicPostScoreEvents, scoreSub, func(msg *message.Message) error {
		_, err := aggregator.Handle(msg)
		return err
	})

	return router, nil
}

// RunRouter starts router and blocks until ctx is cancelled, draining
// in-flight messages before returning (spec §5: "background tasks
// must honor a process-shutdown signal by draining in-flight work").
func RunRouter(ctx context.Context, router *message.Router, logger log.Logger) error {
	l := log.NewHelper(logger)
	if err := router.Run(ctx); err != nil {
		l.Errorw("msg", "event router exited with error", "error", err)
		return err
	}
	return nil
}
