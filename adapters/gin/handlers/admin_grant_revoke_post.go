package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

// HandleAdminGrantRevokePOST is the manual revocation path. Admin gating is
// the gateway's job; the caller id recorded here is for audit only.
func HandleAdminGrantRevokePOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminReview) {
			ginutil.TooMany(c)
			return
		}
		caller, err := uuid.Parse(ginutil.CallerID(c))
		if err != nil {
			ginutil.Forbidden(c, "missing_caller")
			return
		}
		grantID, err := uuid.Parse(c.Param("grant_id"))
		if err != nil {
			ginutil.BadRequest(c, "invalid_grant_id")
			return
		}
		if err := svc.RevokeGrant(c.Request.Context(), grantID, caller); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	}
}
