package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

func HandleAdminVerificationApprovePOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	type approveReq struct {
		// DurationDays overrides the requested duration; null approves
		// whatever the request asked for.
		DurationDays *int `json:"duration_days"`
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
		var req approveReq
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				ginutil.BadRequest(c, "invalid_request")
				return
			}
		}
		out, err := svc.ApproveVerification(c.Request.Context(), requestID, reviewer, req.DurationDays)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"request": out})
	}
}
