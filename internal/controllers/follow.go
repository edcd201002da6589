package controllers

import khttp "github.com/go-kratos/kratos/v2/transport/http"

// PostFollow handles POST /user/{id}/follow (spec §6.1): toggles the
// caller's follow relationship with the creator named by the path,
// following if not already followed and unfollowing otherwise.
func (h *Handler) PostFollow(ctx khttp.Context) error {
	creatorID := ctx.Vars().Get("id")
	if creatorID == "" {
		return writeError(ctx, errValidation("creator id is required"))
	}

	_, accessor, err := h.gateway.resolve(ctx)
	if err != nil {
		return writeError(ctx, err)
	}

	rctx := ctx.Request().Context()
	view, err := accessor.Load(rctx)
	if err != nil {
		return writeError(ctx, err)
	}

	following := false
	for _, f := range view.Following {
		if f.UserID == creatorID {
			following = true
			break
		}
	}

	if err := h.toggleFollow(rctx, accessor, creatorID, !following); err != nil {
		return writeError(ctx, err)
	}

	return ctx.Result(200, okEnvelope())
}
