package controllers

import khttp "github.com/go-kratos/kratos/v2/transport/http"

// GetFeed handles GET /feed (spec §6.1): requires an authenticated
// session, dispatches to the feed assembler (C10) with the caller's
// resolved accessor supplying its hot-path pools.
func (h *Handler) GetFeed(ctx khttp.Context) error {
	userID, accessor, err := h.gateway.resolve(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	resp, err := h.feed.Assemble(ctx.Request().Context(), userID, accessor)
	if err != nil {
		return writeError(ctx, err)
	}
	return ctx.Result(200, resp)
}
