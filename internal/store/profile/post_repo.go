package profile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostRepository maintains post rows and serves the feed assembler's
// bucketed candidate queries (spec §3.1, §4.7 step 4, §6.5 indexes).
type PostRepository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewPostRepository constructs a PostRepository.
func NewPostRepository(db *pgxpool.Pool, logger log.Logger) *PostRepository {
	return &PostRepository{db: db, log: log.NewHelper(logger)}
}

const postColumns = `
	id, creator, category, sub_category, specific,
	impression_count, engagement_sum, raw_score, trending_score,
	short_term_velocity_ema, historical_velocity_ema, bayesian_score,
	cumulative_score, is_evergreen, is_rising, created_at,
	last_trending_update, last_score_update, window_events
`

func scanPost(row pgx.Row) (*po.Post, error) {
	var p po.Post
	var id uuid.UUID
	var windowBytes []byte
	err := row.Scan(
		&id, &p.Creator, &p.Category, &p.SubCategory, &p.Specific,
		&p.ImpressionCount, &p.EngagementSum, &p.RawScore, &p.TrendingScore,
		&p.ShortTermVelocityEMA, &p.HistoricalVelocityEMA, &p.BayesianScore,
		&p.CumulativeScore, &p.IsEvergreen, &p.IsRising, &p.CreatedAt,
		&p.LastTrendingUpdate, &p.LastScoreUpdate, &windowBytes,
	)
	if err != nil {
		return nil, err
	}
	p.ID = id.String()
	if len(windowBytes) > 0 {
		if err := json.Unmarshal(windowBytes, &p.WindowEvents); err != nil {
			return nil, fmt.Errorf("unmarshal window events: %w", err)
		}
	}
	return &p, nil
}

// Get returns a single post by id.
func (r *PostRepository) Get(ctx context.Context, postID string) (*po.Post, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM feed.posts WHERE id = $1`, postColumns), postID)
	p, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", postID, err)
	}
	return p, nil
}

// Save persists the metrics fields the post metrics engine (C7) mutates
// on each engagement.
func (r *PostRepository) Save(ctx context.Context, p *po.Post) error {
	windowBytes, err := json.Marshal(p.WindowEvents)
	if err != nil {
		return fmt.Errorf("marshal window events: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		UPDATE feed.posts SET
			impression_count = $2, engagement_sum = $3, raw_score = $4,
			trending_score = $5, short_term_velocity_ema = $6,
			historical_velocity_ema = $7, bayesian_score = $8,
			cumulative_score = $9, is_evergreen = $10, is_rising = $11,
			last_trending_update = $12, last_score_update = $13,
			window_events = $14
		WHERE id = $1
	`, p.ID, p.ImpressionCount, p.EngagementSum, p.RawScore, p.TrendingScore,
		p.ShortTermVelocityEMA, p.HistoricalVelocityEMA, p.BayesianScore,
		p.CumulativeScore, p.IsEvergreen, p.IsRising, p.LastTrendingUpdate,
		p.LastScoreUpdate, windowBytes)
	if err != nil {
		r.log.WithContext(ctx).Errorw("msg", "save post metrics failed", "post_id", p.ID, "error", err)
		return fmt.Errorf("save post %s: %w", p.ID, err)
	}
	return nil
}

// LastTrendingUpdate returns postID's last_trending_update column,
// used by the hourly aggregator to gate a buffered flush (spec §4.8).
func (r *PostRepository) LastTrendingUpdate(ctx context.Context, postID string) (time.Time, error) {
	row := r.db.QueryRow(ctx, `SELECT last_trending_update FROM feed.posts WHERE id = $1`, postID)
	var t time.Time
	if err := row.Scan(&t); err != nil {
		return time.Time{}, fmt.Errorf("last trending update %s: %w", postID, err)
	}
	return t, nil
}

// IncrementCounters applies the commutative impression/engagement
// increment used by the engagement stats consumer (spec §4.8).
func (r *PostRepository) IncrementCounters(ctx context.Context, postID string, impressionDelta int64, engagementDelta float64) error {
	_, err := r.db.Exec(ctx, `
		UPDATE feed.posts
		SET impression_count = impression_count + $2, engagement_sum = engagement_sum + $3
		WHERE id = $1
	`, postID, impressionDelta, engagementDelta)
	if err != nil {
		return fmt.Errorf("increment post counters %s: %w", postID, err)
	}
	return nil
}

func scanPosts(rows pgx.Rows) ([]*po.Post, error) {
	defer rows.Close()
	var out []*po.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CandidateFilter narrows a candidate query to the feed assembler's
// bucket definitions (spec §4.7 step 4).
type CandidateFilter struct {
	Category        *string
	SubCategory     *string
	Creators        []string
	ExcludeCreators []string
	ExcludeIDs      []string
	IsRising        *bool
	IsEvergreen     *bool
	CreatedAfter    *time.Time
}

// filterClause builds a WHERE clause and args for f, starting
// placeholders at argOffset+1.
func filterClause(f CandidateFilter, argOffset int) (string, []any) {
	var clauses []string
	var args []any
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", argOffset+len(args))
	}
	if f.Category != nil {
		clauses = append(clauses, "category = "+next(*f.Category))
	}
	if f.SubCategory != nil {
		clauses = append(clauses, "sub_category = "+next(*f.SubCategory))
	}
	if len(f.Creators) > 0 {
		clauses = append(clauses, "creator = ANY("+next(f.Creators)+")")
	}
	if len(f.ExcludeCreators) > 0 {
		clauses = append(clauses, "NOT (creator = ANY("+next(f.ExcludeCreators)+"))")
	}
	if len(f.ExcludeIDs) > 0 {
		clauses = append(clauses, "NOT (id::text = ANY("+next(f.ExcludeIDs)+"))")
	}
	if f.IsRising != nil {
		clauses = append(clauses, "is_rising = "+next(*f.IsRising))
	}
	if f.IsEvergreen != nil {
		clauses = append(clauses, "is_evergreen = "+next(*f.IsEvergreen))
	}
	if f.CreatedAfter != nil {
		clauses = append(clauses, "created_at >= "+next(*f.CreatedAfter))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// TopN returns the top n posts matching f, ordered by orderBy desc,
// created_at desc (the bayesian/trending leaderboards of §4.7 step 4).
func (r *PostRepository) TopN(ctx context.Context, f CandidateFilter, orderBy string, n int) ([]*po.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	where, args := filterClause(f, 0)
	query := fmt.Sprintf(`SELECT %s FROM feed.posts %s ORDER BY %s DESC, created_at DESC LIMIT %d`,
		postColumns, where, orderBy, n)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("top-n posts: %w", err)
	}
	return scanPosts(rows)
}

// RandomN returns n randomly sampled posts matching f, used to fill
// out the "+N random" half of every candidate bucket in §4.7 step 4.
func (r *PostRepository) RandomN(ctx context.Context, f CandidateFilter, n int) ([]*po.Post, error) {
	if n <= 0 {
		return nil, nil
	}
	where, args := filterClause(f, 0)
	query := fmt.Sprintf(`SELECT %s FROM feed.posts %s ORDER BY random() LIMIT %d`, postColumns, where, n)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("random-n posts: %w", err)
	}
	return scanPosts(rows)
}

// ListEligibleForEvergreen returns posts with rawScore >= minRaw, for the
// 2-hourly evergreen recompute job (spec §4.9).
func (r *PostRepository) ListEligibleForEvergreen(ctx context.Context, minRaw float64) ([]*po.Post, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM feed.posts WHERE raw_score >= $1`, postColumns), minRaw)
	if err != nil {
		return nil, fmt.Errorf("list evergreen candidates: %w", err)
	}
	return scanPosts(rows)
}

// UpdateEvergreenFlags persists the evergreen/rising flags touched by
// the scheduled job in one statement per post.
func (r *PostRepository) UpdateEvergreenFlags(ctx context.Context, postID string, isEvergreen, isRising bool) error {
	_, err := r.db.Exec(ctx, `UPDATE feed.posts SET is_evergreen = $2, is_rising = $3 WHERE id = $1`, postID, isEvergreen, isRising)
	if err != nil {
		return fmt.Errorf("update evergreen flags %s: %w", postID, err)
	}
	return nil
}
