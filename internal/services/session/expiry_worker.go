package session

import (
	"context"
	"errors"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
)

// ExpiryWorker sweeps the last-access sorted set every
// scoring.ExpiryWorkerTick, merging each stale session back into its
// owner's persistent profile before evicting it (spec §4.6 "Expiry
// worker").
type ExpiryWorker struct {
	svc  *Service
	tick time.Duration
	now  func() time.Time
}

// NewExpiryWorker constructs an ExpiryWorker over svc.
func NewExpiryWorker(svc *Service) *ExpiryWorker {
	return &ExpiryWorker{svc: svc, tick: scoring.ExpiryWorkerTick, now: time.Now}
}

// Run blocks, sweeping on every tick until ctx is cancelled (spec §5:
// "background tasks must honor a process-shutdown signal").
func (w *ExpiryWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep processes every session whose last access is older than
// scoring.SessionTTL. A failure on one session is logged and never
// prevents the remaining sessions in the batch from being processed
// (spec §4.6).
func (w *ExpiryWorker) Sweep(ctx context.Context) {
	cutoff := w.now().Add(-scoring.SessionTTL).UnixMilli()
	expired, err := w.svc.sessions.ExpiredBefore(ctx, cutoff)
	if err != nil {
		w.svc.log.WithContext(ctx).Errorw("msg", "list expired sessions failed", "error", err)
		return
	}
	for _, sessionID := range expired {
		w.processOne(ctx, sessionID)
	}
}

// processOne merges sessionID back into its owner's profile and
// evicts it. Every exit path removes sessionID from the last-access
// sorted set so a persistently failing session can never wedge the
// sweep (spec §4.6: "must force its removal from the sorted set to
// avoid repeated failures").
func (w *ExpiryWorker) processOne(ctx context.Context, sessionID string) {
	blob, err := w.svc.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, sessionstore.ErrNotFound):
		if rmErr := w.svc.sessions.RemoveAccess(ctx, sessionID); rmErr != nil {
			w.svc.log.WithContext(ctx).Errorw("msg", "remove access for missing session failed", "session_id", sessionID, "error", rmErr)
		}
		return
	case errors.Is(err, sessionstore.ErrCorrupt):
		w.svc.log.WithContext(ctx).Errorw("msg", "dropping corrupt session blob", "session_id", sessionID, "error", err)
		if delErr := w.svc.sessions.Delete(ctx, sessionID); delErr != nil {
			w.svc.log.WithContext(ctx).Errorw("msg", "delete corrupt session blob failed", "session_id", sessionID, "error", delErr)
		}
		if rmErr := w.svc.sessions.RemoveAccess(ctx, sessionID); rmErr != nil {
			w.svc.log.WithContext(ctx).Errorw("msg", "remove access for corrupt session failed", "session_id", sessionID, "error", rmErr)
		}
		return
	case err != nil:
		w.svc.log.WithContext(ctx).Errorw("msg", "load session blob failed", "session_id", sessionID, "error", err)
		if rmErr := w.svc.sessions.RemoveAccess(ctx, sessionID); rmErr != nil {
			w.svc.log.WithContext(ctx).Errorw("msg", "remove access after load failure failed", "session_id", sessionID, "error", rmErr)
		}
		return
	}

	mergeErr := w.svc.mergeBack(ctx, sessionID, blob)
	if errors.Is(mergeErr, ErrUserMismatch) {
		// Refuse and leave the blob in place for manual inspection
		// (spec §7): drop it out of the sweep's access set so it
		// stops being retried every tick, but never delete it.
		w.svc.log.WithContext(ctx).Errorw("msg", "merge-back userId mismatch, leaving session for manual inspection", "session_id", sessionID, "user_id", blob.UserID)
		if rmErr := w.svc.sessions.RemoveAccess(ctx, sessionID); rmErr != nil {
			w.svc.log.WithContext(ctx).Errorw("msg", "remove access after userId mismatch failed", "session_id", sessionID, "error", rmErr)
		}
		return
	}
	if mergeErr != nil {
		w.svc.log.WithContext(ctx).Errorw("msg", "merge-back failed", "session_id", sessionID, "error", mergeErr)
	}
	if delErr := w.svc.sessions.Delete(ctx, sessionID); delErr != nil {
		w.svc.log.WithContext(ctx).Errorw("msg", "delete session blob failed", "session_id", sessionID, "error", delErr)
	}
	if rmErr := w.svc.sessions.RemoveAccess(ctx, sessionID); rmErr != nil {
		w.svc.log.WithContext(ctx).Errorw("msg", "remove access failed", "session_id", sessionID, "error", rmErr)
	}
}
