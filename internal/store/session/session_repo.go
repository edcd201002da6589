// Package session implements the fast session store (C4): the
// per-session JSON blob, the last-access sorted set, and the
// score-buffer hash mirror used by the hourly aggregator — all backed
// by Redis through redis/go-redis/v9 (spec §3.1, §6.3).
package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/redis/go-redis/v9"
)

const (
	sessionKeyPrefix = "sess:"
	ownerKeyPrefix   = "sess:owner:"
	lastAccessZSet   = "sessions:lastAccess"
	scoreBufferHash  = "score_buffer"
)

func sessionKey(sessionID string) string { return sessionKeyPrefix + sessionID }
func ownerKey(sessionID string) string   { return ownerKeyPrefix + sessionID }

// Repository is the fast-store accessor for session blobs and the
// score buffer mirror.
type Repository struct {
	rdb *redis.Client
	log *log.Helper
}

// NewRepository constructs a Repository.
func NewRepository(rdb *redis.Client, logger log.Logger) *Repository {
	return &Repository{rdb: rdb, log: log.NewHelper(logger)}
}

// ErrNotFound is returned when a session blob is absent.
var ErrNotFound = fmt.Errorf("session: not found")

// Get returns the session blob for sessionID, or ErrNotFound.
func (r *Repository) Get(ctx context.Context, sessionID string) (*po.SessionBlob, error) {
	raw, err := r.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", sessionID, err)
	}
	var blob po.SessionBlob
	if err := json.Unmarshal(raw, &blob); err != nil {
		return nil, fmt.Errorf("%w: corrupt session blob %s: %v", ErrCorrupt, sessionID, err)
	}
	return &blob, nil
}

// ErrCorrupt marks a session blob that failed to parse; callers treat
// this the same as an expired session (spec §4.6, §7).
var ErrCorrupt = fmt.Errorf("session: corrupt blob")

// Put writes the session blob with no TTL — liveness is governed
// entirely by the last-access sorted set (spec §4.6). It also records
// blob.UserID under a separate owner key, set once at session creation
// and never rewritten, so merge-back can later detect a blob whose
// userId diverges from the owner the session was minted for (spec §7
// "merge-back userId mismatch").
func (r *Repository) Put(ctx context.Context, sessionID string, blob *po.SessionBlob) error {
	raw, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("marshal session blob %s: %w", sessionID, err)
	}
	if err := r.rdb.Set(ctx, sessionKey(sessionID), raw, 0).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", sessionID, err)
	}
	if err := r.rdb.Set(ctx, ownerKey(sessionID), blob.UserID, 0).Err(); err != nil {
		return fmt.Errorf("put session owner %s: %w", sessionID, err)
	}
	return nil
}

// Owner returns the userId a session was created for, or ErrNotFound
// if no owner record exists (sessions written before this record
// existed, or already evicted).
func (r *Repository) Owner(ctx context.Context, sessionID string) (string, error) {
	userID, err := r.rdb.Get(ctx, ownerKey(sessionID)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get session owner %s: %w", sessionID, err)
	}
	return userID, nil
}

// Delete removes the session blob and its owner record.
func (r *Repository) Delete(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, sessionKey(sessionID), ownerKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Touch sets sessionID's last-access score to nowMs in the sorted set,
// inserting it if absent (session start/refresh, spec §4.6).
func (r *Repository) Touch(ctx context.Context, sessionID string, nowMs int64) error {
	if err := r.rdb.ZAdd(ctx, lastAccessZSet, redis.Z{Score: float64(nowMs), Member: sessionID}).Err(); err != nil {
		return fmt.Errorf("touch session %s: %w", sessionID, err)
	}
	return nil
}

// RemoveAccess removes sessionID from the last-access sorted set.
func (r *Repository) RemoveAccess(ctx context.Context, sessionID string) error {
	if err := r.rdb.ZRem(ctx, lastAccessZSet, sessionID).Err(); err != nil {
		return fmt.Errorf("remove access %s: %w", sessionID, err)
	}
	return nil
}

// ExpiredBefore returns session ids whose last-access score is <=
// cutoffMs, for the expiry worker's periodic sweep (spec §4.6).
func (r *Repository) ExpiredBefore(ctx context.Context, cutoffMs int64) ([]string, error) {
	ids, err := r.rdb.ZRangeByScore(ctx, lastAccessZSet, &redis.ZRangeBy{
		Min: "0",
		Max: fmt.Sprintf("%d", cutoffMs),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("expired sessions before %d: %w", cutoffMs, err)
	}
	return ids, nil
}

// BufferScoreDelta accumulates delta into the score_buffer hash field
// for postID (HINCRBYFLOAT, spec §4.8).
func (r *Repository) BufferScoreDelta(ctx context.Context, postID string, delta float64) error {
	if err := r.rdb.HIncrByFloat(ctx, scoreBufferHash, postID, delta).Err(); err != nil {
		return fmt.Errorf("buffer score delta %s: %w", postID, err)
	}
	return nil
}

// LoadScoreBuffer returns the full score_buffer hash, for hydrating
// the in-process buffer on aggregator startup (spec §4.8).
func (r *Repository) LoadScoreBuffer(ctx context.Context) (map[string]float64, error) {
	raw, err := r.rdb.HGetAll(ctx, scoreBufferHash).Result()
	if err != nil {
		return nil, fmt.Errorf("load score buffer: %w", err)
	}
	out := make(map[string]float64, len(raw))
	for k, v := range raw {
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err != nil {
			continue
		}
		out[k] = f
	}
	return out, nil
}

// DropBufferedScore removes postID's field from the score_buffer hash
// once its delta has been flushed into the post metrics engine.
func (r *Repository) DropBufferedScore(ctx context.Context, postID string) error {
	if err := r.rdb.HDel(ctx, scoreBufferHash, postID).Err(); err != nil {
		return fmt.Errorf("drop buffered score %s: %w", postID, err)
	}
	return nil
}
