// Package controllers implements the engagement controller (C12): the
// HTTP edge that validates requests, resolves the caller's session,
// and dispatches to the interest, creator, metrics and event services
// (spec §4's "edge → C12 → C5/C6/C7/C8" flow, §6.1, §6.2).
package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/bionicotaku/lingo-feed-ranker/internal/scoring"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/profileaccessor"
	"github.com/bionicotaku/lingo-feed-ranker/internal/services/session"
	sessionstore "github.com/bionicotaku/lingo-feed-ranker/internal/store/session"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/go-kratos/kratos/v2/log"
)

const sessionCookieName = "sid"

// userIDHeader carries the caller identity established by the
// out-of-scope auth edge (SPEC_FULL §6 NEW Transport).
const userIDHeader = "x-user-id"

// sessionGateway resolves the (userID, Accessor) pair for a request per
// spec §6.2: refresh an existing cookie's session, or mint a new one
// and set the cookie.
type sessionGateway struct {
	sessions  *sessionstore.Repository
	lifecycle *session.Service
	log       *log.Helper
}

func newSessionGateway(sessions *sessionstore.Repository, lifecycle *session.Service, logger log.Logger) *sessionGateway {
	return &sessionGateway{sessions: sessions, lifecycle: lifecycle, log: log.NewHelper(logger)}
}

// resolve extracts the userID from the request header, finds or
// creates a session, and returns a SessionAccessor bound to it. On a
// missing/expired/corrupt cookie it starts a new session and sets the
// response cookie.
func (g *sessionGateway) resolve(ctx khttp.Context) (userID string, accessor profileaccessor.Accessor, err error) {
	req := ctx.Request()
	userID = req.Header.Get(userIDHeader)
	if userID == "" {
		return "", nil, errUnauthorized
	}

	if cookie, cookieErr := req.Cookie(sessionCookieName); cookieErr == nil && cookie.Value != "" {
		if _, getErr := g.sessions.Get(ctx, cookie.Value); getErr == nil {
			if refreshErr := g.lifecycle.Refresh(ctx, cookie.Value); refreshErr != nil {
				return "", nil, refreshErr
			}
			return userID, profileaccessor.NewSessionAccessor(cookie.Value, g.sessions), nil
		} else if !errors.Is(getErr, sessionstore.ErrNotFound) && !errors.Is(getErr, sessionstore.ErrCorrupt) {
			return "", nil, getErr
		}
		// Corrupt or expired: fall through and mint a fresh session,
		// treating it the same as "no cookie" (spec §7).
	}

	sessionID, startErr := g.lifecycle.Start(ctx, userID)
	if startErr != nil {
		return "", nil, startErr
	}
	setSessionCookie(ctx.Response(), sessionID)
	return userID, profileaccessor.NewSessionAccessor(sessionID, g.sessions), nil
}

func setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(scoring.SessionTTL / time.Second),
		Path:     "/",
	})
}
