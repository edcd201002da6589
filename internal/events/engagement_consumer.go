package events

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-kratos/kratos/v2/log"
)

// CounterStore is the subset of statistics mutation the engagement
// stats consumer needs. Absent-row upserts are handled by the store.
type CounterStore interface {
	IncrementPost(ctx context.Context, postID string, impressionDelta int64, engagementDelta float64) error
	IncrementGlobal(ctx context.Context, entityType, name string, impressionDelta int64, engagementDelta float64) error
	IncrementUserInterest(ctx context.Context, userID, entityType, name string, impressionDelta int64, engagementDelta float64) error
	IncrementCreator(ctx context.Context, creatorID string, impressionDelta int64, engagementDelta float64) error
}

// EngagementConsumer applies every engagement-events message to the
// four counter documents (spec §4.8: "all increments must happen but
// order among them is immaterial").
type EngagementConsumer struct {
	counters CounterStore
	log      *log.Helper
}

// NewEngagementConsumer constructs an EngagementConsumer.
func NewEngagementConsumer(counters CounterStore, logger log.Logger) *EngagementConsumer {
	return &EngagementConsumer{counters: counters, log: log.NewHelper(logger)}
}

// Handle is a watermill message.HandlerFunc. It never returns an error
// for a malformed payload (it acks and drops) but does return store
// errors so the router's retry middleware can nack and redeliver.
func (c *EngagementConsumer) Handle(msg *message.Message) ([]*message.Message, error) {
	var evt EngagementEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		c.log.Errorw("msg", "engagement event unmarshal failed, dropping", "error", err)
		return nil, nil
	}
	if err := evt.Validate(); err != nil {
		c.log.Errorw("msg", "engagement event failed validation, dropping", "error", err)
		return nil, nil
	}

	ctx := msg.Context()
	impressions, engagement := int64(1), evt.EngagementScore

	if err := c.counters.IncrementPost(ctx, evt.PostID, impressions, engagement); err != nil {
		return nil, err
	}
	if err := c.counters.IncrementGlobal(ctx, "category", evt.Category, impressions, engagement); err != nil {
		return nil, err
	}
	if err := c.counters.IncrementUserInterest(ctx, evt.UserID, "category", evt.Category, impressions, engagement); err != nil {
		return nil, err
	}
	if err := c.counters.IncrementCreator(ctx, evt.CreatorID, impressions, engagement); err != nil {
		return nil, err
	}
	if evt.SubCategory != "" {
		if err := c.counters.IncrementGlobal(ctx, "subcategory", evt.SubCategory, impressions, engagement); err != nil {
			return nil, err
		}
		if err := c.counters.IncrementUserInterest(ctx, evt.UserID, "subcategory", evt.SubCategory, impressions, engagement); err != nil {
			return nil, err
		}
	}
	return nil, nil
}
