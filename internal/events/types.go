// Package events implements the event pipeline (C8): producers and
// consumers for the engagement-events and post-score-events topics,
// built on watermill over NATS JetStream (spec §4.8).
package events

import (
	"errors"
	"time"
)

const (
	// TopicEngagementEvents carries the full engagement record.
	TopicEngagementEvents = "engagement-events"
	// TopicPostScoreEvents carries a single scoreDelta for one post.
	TopicPostScoreEvents = "post-score-events"

	// GroupEngagementStats is the durable consumer group for the
	// engagement stats consumer.
	GroupEngagementStats = "engagement-stats"
	// GroupHourlyAggregator is the durable consumer group for the
	// hourly score aggregator.
	GroupHourlyAggregator = "hourly-aggregator"
)

// ErrInvalidPayload is returned by producers when a payload fails
// schema validation (spec §4.8: "invalid payloads raise a
// non-retriable producer error").
var ErrInvalidPayload = errors.New("events: invalid payload")

// EngagementEvent is the engagement-events payload (spec §6.4).
type EngagementEvent struct {
	PostID          string  `json:"postId"`
	UserID          string  `json:"userId"`
	Category        string  `json:"category"`
	SubCategory     string  `json:"subCategory,omitempty"`
	CreatorID       string  `json:"creatorId"`
	EngagementScore float64 `json:"engagementScore"`
}

// Validate applies the static schema checks §4.8 requires before
// publish: every identifying field must be present.
func (e EngagementEvent) Validate() error {
	if e.PostID == "" || e.UserID == "" || e.Category == "" || e.CreatorID == "" {
		return ErrInvalidPayload
	}
	return nil
}

// PostScoreEvent is the post-score-events payload (spec §6.4).
type PostScoreEvent struct {
	PostID         string    `json:"postId"`
	UserID         string    `json:"userId"`
	EngagementType string    `json:"engagementType"`
	ScoreDelta     float64   `json:"scoreDelta"`
	Timestamp      time.Time `json:"timestamp"`
}

// Validate applies the static schema checks for a score event.
func (e PostScoreEvent) Validate() error {
	if e.PostID == "" || e.Timestamp.IsZero() {
		return ErrInvalidPayload
	}
	return nil
}
