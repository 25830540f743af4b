package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

// writeServiceError maps engine errors onto the adapter's error responses.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidDuration):
		ginutil.BadRequest(c, "invalid_duration")
	case errors.Is(err, core.ErrInvalidType):
		ginutil.BadRequest(c, "invalid_type")
	case errors.Is(err, core.ErrPricingNotFound):
		ginutil.BadRequest(c, "no_price_for_entitlement")
	case errors.Is(err, core.ErrTargetDeleted):
		ginutil.NotFound(c, "target_deleted")
	case errors.Is(err, core.ErrTargetNotFound):
		ginutil.NotFound(c, "target_not_found")
	case errors.Is(err, core.ErrGrantNotFound):
		ginutil.NotFound(c, "grant_not_found")
	case errors.Is(err, core.ErrRequestNotFound):
		ginutil.NotFound(c, "request_not_found")
	case errors.Is(err, core.ErrInvalidTransition):
		ginutil.Conflict(c, "invalid_transition")
	case errors.Is(err, core.ErrUnauthorized):
		ginutil.Forbidden(c, "not_owner")
	default:
		ginutil.ServerErr(c, "internal_error")
	}
}
