package controllers

import (
	"context"

	"github.com/bionicotaku/lingo-feed-ranker/internal/events"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/bionicotaku/lingo-feed-ranker/internal/models/vo"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/session"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	kratoshttp "github.com/go-kratos/kratos/v2/transport/http"
)

// postStore is the subset of profile.PostRepository the edge needs to
// resolve a postId into its category/creator before dispatching to C5/C6/C7.
type postStore interface {
	Get(ctx context.Context, postID string) (*po.Post, error)
}

// interestService is the subset of interest.Service the edge drives.
type interestService interface {
	Score(ctx context.Context, userID string, accessor profileaccessor.Accessor, category, subCategory, specific string, engagementScore float64) error
	Skip(ctx context.Context, accessor profileaccessor.Accessor, category, subCategory, specific string) error
}

// creatorService is the subset of creator.Service the edge drives.
type creatorService interface {
	Score(ctx context.Context, accessor profileaccessor.Accessor, creatorID string, engagementScore float64) error
	Skip(ctx context.Context, accessor profileaccessor.Accessor, creatorID string) error
}

// metricsEngine is the subset of metrics.Engine the edge drives
// synchronously, as the request-path's best-effort estimate (spec §5).
type metricsEngine interface {
	Apply(ctx context.Context, postID, engagementType string, scoreDelta float64) error
}

// producer is the subset of events.Producer the edge publishes
// through.
type producer interface {
	PublishEngagement(ctx context.Context, e events.EngagementEvent) error
	PublishScoreDelta(ctx context.Context, e events.PostScoreEvent) error
}

// feedAssembler is the subset of feed.Assembler the edge drives for
// GET /feed.
type feedAssembler interface {
	Assemble(ctx context.Context, userID string, sessionAccessor profileaccessor.Accessor) (vo.FeedResponse, error)
}

// Handler implements the four HTTP endpoints of spec §6.1, dispatching
// to C5/C6/C7/C8/C10 per the orchestration flow named for C12.
type Handler struct {
	gateway   *sessionGateway
	posts     postStore
	interests interestService
	creators  creatorService
	metrics   metricsEngine
	producer  producer
	feed      feedAssembler
	log       *log.Helper
}

// Deps collects Handler's constructor dependencies.
type Deps struct {
	Sessions  *sessionstore.Repository
	Lifecycle *session.Service
	Posts     postStore
	Interests interestService
	Creators  creatorService
	Metrics   metricsEngine
	Producer  producer
	Feed      feedAssembler
	Logger    log.Logger
}

// NewHandler constructs a Handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		gateway:   newSessionGateway(d.Sessions, d.Lifecycle, d.Logger),
		posts:     d.Posts,
		interests: d.Interests,
		creators:  d.Creators,
		metrics:   d.Metrics,
		producer:  d.Producer,
		feed:      d.Feed,
		log:       log.NewHelper(d.Logger),
	}
}

// RegisterRoutes mounts the four endpoints onto srv (spec §6.1).
func (h *Handler) RegisterRoutes(srv *kratoshttp.Server) {
	route := srv.Route("/")
	route.POST("/engagement/positive", h.PostPositive)
	route.POST("/engagement/negative", h.PostNegative)
	route.GET("/feed", h.GetFeed)
	route.POST("/user/{id}/follow", h.PostFollow)
}

func errPostNotFound(postID string) error {
	return kratoserrors.NotFound("POST_NOT_FOUND", "post not found: "+postID)
}
