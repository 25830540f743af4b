package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

func HandleVerificationRequestPOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	type submitReq struct {
		Type         string `json:"type"`
		DurationDays *int   `json:"duration_days"`
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLVerificationSubmit) {
			ginutil.TooMany(c)
			return
		}
		caller, err := uuid.Parse(ginutil.CallerID(c))
		if err != nil {
			ginutil.Forbidden(c, "missing_caller")
			return
		}
		var req submitReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		out, err := svc.SubmitVerification(c.Request.Context(), core.SubmitVerificationInput{
			UserID:       caller,
			Type:         core.EntitlementType(req.Type),
			DurationDays: req.DurationDays,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"request": out})
	}
}
