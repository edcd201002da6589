// Package session implements session lifecycle (C9): starting a
// session by projecting the persistent profile into a fast-store blob,
// refreshing its last-access timestamp, and merging an expired
// session's pools back into the persistent profile (spec §4.6).
package session

import (
	"context"
	"errors"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/models/po"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
)

// ErrUserMismatch marks a session blob whose userId diverges from the
// owner record set at session creation — a data-integrity failure
// distinct from a corrupt or missing blob. Callers must refuse the
// merge, log it, and leave the session in place for manual inspection
// rather than deleting it (spec §7 "merge-back userId mismatch").
var ErrUserMismatch = errors.New("session: userId mismatch")

// sessionStore is the subset of the fast session store this package
// needs, narrowed to an interface so Service can be tested against a
// fake (spec §4.6, §6.3).
type sessionStore interface {
	Get(ctx context.Context, sessionID string) (*po.SessionBlob, error)
	Put(ctx context.Context, sessionID string, blob *po.SessionBlob) error
	Owner(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	Touch(ctx context.Context, sessionID string, nowMs int64) error
	RemoveAccess(ctx context.Context, sessionID string) error
	ExpiredBefore(ctx context.Context, cutoffMs int64) ([]string, error)
}

// profileStore is the subset of the persistent profile repository
// this package needs.
type profileStore interface {
	Load(ctx context.Context, userID string) (*po.UserProfile, error)
	Save(ctx context.Context, profile *po.UserProfile) error
}

// Service implements session start/refresh and the merge-back that
// drives the expiry worker.
type Service struct {
	sessions sessionStore
	profiles profileStore
	log      *log.Helper
	now      func() time.Time
}

// NewService constructs a Service.
func NewService(sessions sessionStore, profiles profileStore, logger log.Logger) *Service {
	return &Service{sessions: sessions, profiles: profiles, log: log.NewHelper(logger), now: time.Now}
}

// Start projects userID's persistent profile into a fresh session blob
// and registers it in the last-access sorted set (spec §4.6 "Start").
func (s *Service) Start(ctx context.Context, userID string) (string, error) {
	profile, err := s.profiles.Load(ctx, userID)
	if err != nil {
		return "", err
	}
	sessionID := uuid.NewString()
	blob := po.FromProfile(profile)
	if err := s.sessions.Put(ctx, sessionID, blob); err != nil {
		return "", err
	}
	if err := s.sessions.Touch(ctx, sessionID, s.now().UnixMilli()); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Refresh bumps sessionID's last-access score to now; the blob itself
// carries no TTL (spec §4.6 "Refresh").
func (s *Service) Refresh(ctx context.Context, sessionID string) error {
	return s.sessions.Touch(ctx, sessionID, s.now().UnixMilli())
}
