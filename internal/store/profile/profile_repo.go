package profile

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the persistent profile store (C3). It loads and saves
// the whole user-profile tree as a JSONB document, and maintains the
// global/creator/user-interest stat counters used by the Bayesian
// smoothing steps in C5/C6/C7.
type Repository struct {
	db  *pgxpool.Pool
	log *log.Helper
}

// NewRepository constructs a Repository.
func NewRepository(db *pgxpool.Pool, logger log.Logger) *Repository {
	return &Repository{db: db, log: log.NewHelper(logger)}
}

type profileDoc struct {
	TopInterests      []*po.CategoryNode `json:"topInterests"`
	RisingInterests   []*po.CategoryNode `json:"risingInterests"`
	CreatorsInterests po.CreatorsInterests `json:"creatorsInterests"`
	Following         []*po.FollowedCreator `json:"following"`
}

// Load returns the persistent profile for userID, creating an empty
// one if none exists yet (spec §3.3: profile is created at signup, but
// the feed/engagement paths tolerate a missing row by treating it as
// freshly created).
func (r *Repository) Load(ctx context.Context, userID string) (*po.UserProfile, error) {
	row := r.db.QueryRow(ctx, `
		SELECT doc, seen_posts FROM feed.user_profiles WHERE user_id = $1
	`, userID)

	var docBytes, seenBytes []byte
	if err := row.Scan(&docBytes, &seenBytes); err != nil {
		if err == pgx.ErrNoRows {
			return po.NewUserProfile(userID), nil
		}
		return nil, fmt.Errorf("load profile %s: %w", userID, err)
	}

	var doc profileDoc
	if err := json.Unmarshal(docBytes, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal profile doc %s: %w", userID, err)
	}
	var seenIDs []string
	if err := json.Unmarshal(seenBytes, &seenIDs); err != nil {
		return nil, fmt.Errorf("unmarshal seen posts %s: %w", userID, err)
	}

	profile := po.NewUserProfile(userID)
	profile.TopInterests = doc.TopInterests
	profile.RisingInterests = doc.RisingInterests
	profile.CreatorsInterests = doc.CreatorsInterests
	profile.Following = doc.Following
	for _, id := range seenIDs {
		profile.SeenPosts[id] = struct{}{}
	}
	return profile, nil
}

// Save persists the whole profile document. Validation is
// intentionally skipped here, per spec §4.3's "persistent variant
// saves the user document with validation skipped" — callers are
// trusted to have produced a structurally valid tree via the pool
// manager.
func (r *Repository) Save(ctx context.Context, profile *po.UserProfile) error {
	doc := profileDoc{
		TopInterests:      profile.TopInterests,
		RisingInterests:   profile.RisingInterests,
		CreatorsInterests: profile.CreatorsInterests,
		Following:         profile.Following,
	}
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal profile doc: %w", err)
	}
	seenIDs := make([]string, 0, len(profile.SeenPosts))
	for id := range profile.SeenPosts {
		seenIDs = append(seenIDs, id)
	}
	seenBytes, err := json.Marshal(seenIDs)
	if err != nil {
		return fmt.Errorf("marshal seen posts: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO feed.user_profiles (user_id, doc, seen_posts, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET doc = EXCLUDED.doc, seen_posts = EXCLUDED.seen_posts, updated_at = now()
	`, profile.UserID, docBytes, seenBytes)
	if err != nil {
		r.log.WithContext(ctx).Errorw("msg", "save profile failed", "user_id", profile.UserID, "error", err)
		return fmt.Errorf("save profile %s: %w", profile.UserID, err)
	}
	return nil
}

// ListUserIDs returns every user id with a persisted profile, for the
// daily rising-decay sweep (spec §4.9) to iterate over.
func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM feed.user_profiles`)
	if err != nil {
		return nil, fmt.Errorf("list user ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// MarkSeen adds postID to the user's seenPosts set.
func (r *Repository) MarkSeen(ctx context.Context, userID string, postID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE feed.user_profiles
		SET seen_posts = (
			CASE WHEN seen_posts @> to_jsonb($2::text)
			THEN seen_posts
			ELSE seen_posts || to_jsonb($2::text)
			END
		)
		WHERE user_id = $1
	`, userID, postID)
	if err != nil {
		return fmt.Errorf("mark seen %s/%s: %w", userID, postID, err)
	}
	return nil
}
