package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

func HandleAdminVerificationRejectPOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	type rejectReq struct {
		Reason string `json:"reason"`
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminReview) {
			ginutil.TooMany(c)
			return
		}
		reviewer, err := uuid.Parse(ginutil.CallerID(c))
		if err != nil {
			ginutil.Forbidden(c, "missing_caller")
			return
		}
		requestID, err := uuid.Parse(c.Param("request_id"))
		if err != nil {
			ginutil.BadRequest(c, "invalid_request_id")
			return
		}
		var req rejectReq
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Reason) == "" {
			ginutil.BadRequest(c, "reason_required")
			return
		}
		out, err := svc.RejectVerification(c.Request.Context(), requestID, reviewer, strings.TrimSpace(req.Reason))
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"request": out})
	}
}
