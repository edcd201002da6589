package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// validatable is satisfied by every payload type this package
// publishes; Validate runs before the message ever reaches the wire.
type validatable interface {
	Validate() error
}

// Producer owns a single watermill publisher connection shared by
// every topic it publishes to, and validates every payload against its static schema before
// publishing, per spec §4.8. A closed or unhealthy publisher triggers
// one lazy reconnect attempt; a second failure surfaces as a
// non-retriable error to the caller.
type Producer struct {
	mu        sync.Mutex
	publisher message.Publisher
	reconnect func() (message.Publisher, error)
	log       *log.Helper
}

// NewProducer wraps publisher with a reconnect factory used when the
// underlying connection reports unhealthy.
func NewProducer(publisher message.Publisher, reconnect func() (message.Publisher, error), logger log.Logger) *Producer {
	return &Producer{publisher: publisher, reconnect: reconnect, log: log.NewHelper(logger)}
}

// PublishEngagement validates and publishes an EngagementEvent.
func (p *Producer) PublishEngagement(ctx context.Context, e EngagementEvent) error {
	return p.publish(ctx, TopicEngagementEvents, e)
}

// PublishScoreDelta validates and publishes a PostScoreEvent.
func (p *Producer) PublishScoreDelta(ctx context.Context, e PostScoreEvent) error {
	return p.publish(ctx, TopicPostScoreEvents, e)
}

func (p *Producer) publish(ctx context.Context, topic string, payload validatable) error {
	if err := payload.Validate(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload for %s: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if err := p.publishWithReconnect(topic, msg); err != nil {
		return fmt.Errorf("events: publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Producer) publishWithReconnect(topic string, msg *message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.publisher.Publish(topic, msg)
	if err == nil {
		return nil
	}
	p.log.Warnw("msg", "producer publish failed, attempting one reconnect", "topic", topic, "err", err)

	fresh, reErr := p.reconnect()
	if reErr != nil {
		return fmt.Errorf("reconnect failed after publish error %v: %w", err, reErr)
	}
	p.publisher = fresh
	return p.publisher.Publish(topic, msg)
}

// Close releases the underlying publisher connection.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.publisher.Close()
}
