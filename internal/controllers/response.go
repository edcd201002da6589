package controllers

import (
	"errors"

	kratoserrors "github.com/go-kratos/kratos/v2/errors"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
)

// errUnauthorized is returned by sessionGateway.resolve when the
// caller identity header is missing (spec §7 "auth failure").
var errUnauthorized = kratoserrors.Unauthorized("MISSING_IDENTITY", "missing caller identity")

// errValidation wraps a validation failure with a caller-supplied
// reason, rendered as 400 (spec §7).
func errValidation(reason string) error {
	return kratoserrors.BadRequest("VALIDATION", reason)
}

// errorEnvelope is the central error payload shape (spec §7
// "{status, message, stack?}").
type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func okEnvelope() map[string]string {
	return map[string]string{"status": "ok"}
}

// writeError renders err through the central envelope, mapping known
// kratos error kinds to their HTTP status and falling back to 500 for
// anything else (spec §7: external store failures propagate as 500).
func writeError(ctx khttp.Context, err error) error {
	var kerr *kratoserrors.Error
	if errors.As(err, &kerr) {
		return ctx.Result(int(kerr.Code), errorEnvelope{Status: "error", Message: kerr.Message})
	}
	return ctx.Result(500, errorEnvelope{Status: "error", Message: "internal error"})
}
