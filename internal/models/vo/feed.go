// Package vo defines the view objects returned by the feed assembler
// to the HTTP edge — the teacher's vo.FeedItem/FeedResponse shape,
// generalized to carry bucket tags and composite scores instead of
// video-only fields (spec §3.1, §4.7).
package vo

import "time"

// FeedPost is one assembled, scored candidate in a rendered feed.
type FeedPost struct {
	PostID   string `json:"postId"`
	Creator  string `json:"creator"`
	Category string `json:"category"`

	Bucket       string  `json:"bucket"`
	OverallScore float64 `json:"overallScore"`

	InterestScore float64 `json:"interestScore"`
	CreatorScore  float64 `json:"creatorScore"`
	RawScore      float64 `json:"rawScore"`
	TrendingScore float64 `json:"trendingScore"`
	BayesianScore float64 `json:"bayesianScore"`

	CreatedAt time.Time `json:"createdAt"`
}

// FeedResponse is the top-level payload for GET /feed (spec §6.1).
type FeedResponse struct {
	Status string   `json:"status"`
	Data   FeedData `json:"data"`
}

// FeedData wraps the posts slice per the spec's {status, data: {posts:
// [...]}} envelope.
type FeedData struct {
	Posts []FeedPost `json:"posts"`
}
