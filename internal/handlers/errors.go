package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/planit-app/planit-api/internal/middleware"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/rs/zerolog"
)

// writeError maps a service error to its HTTP status. Internal errors are
// logged and hidden from the caller.
func writeError(c *drift.Context, err error) {
	switch services.KindOf(err) {
	case services.KindNotFound:
		c.NotFound(err.Error())
	case services.KindForbidden:
		c.Forbidden(err.Error())
	case services.KindConflict:
		_ = c.JSON(http.StatusConflict, map[string]string{
			"error": err.Error(),
			"kind":  services.KindConflict.String(),
		})
	case services.KindInvalid:
		c.BadRequest(err.Error())
	case services.KindUnauthorized:
		c.Unauthorized(err.Error())
	default:
		zerolog.Ctx(c.Request.Context()).Error().Err(err).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
		c.InternalServerError("internal server error")
	}
}

// requireUser returns the authenticated caller, writing 401 when absent.
func requireUser(c *drift.Context) (uuid.UUID, bool) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *drift.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.BadRequest("invalid " + label + " id")
		return uuid.Nil, false
	}
	return id, true
}
