package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

func HandlePromotionApplyPOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	type applyReq struct {
		AdID          string `json:"ad_id"`
		Type          string `json:"type"`
		DurationDays  int    `json:"duration_days"`
		PaymentRef    string `json:"payment_ref"`
		PaymentMethod string `json:"payment_method"`
	}
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLPromotionApply) {
			ginutil.TooMany(c)
			return
		}
		caller, err := uuid.Parse(ginutil.CallerID(c))
		if err != nil {
			ginutil.Forbidden(c, "missing_caller")
			return
		}
		var req applyReq
		if err := c.ShouldBindJSON(&req); err != nil {
			ginutil.BadRequest(c, "invalid_request")
			return
		}
		adID, err := uuid.Parse(req.AdID)
		if err != nil {
			ginutil.BadRequest(c, "invalid_ad_id")
			return
		}
		grant, err := svc.ApplyPromotion(c.Request.Context(), core.ApplyPromotionInput{
			AdID:          adID,
			Type:          core.EntitlementType(req.Type),
			DurationDays:  req.DurationDays,
			RequestedBy:   caller,
			PaymentRef:    req.PaymentRef,
			PaymentMethod: req.PaymentMethod,
		})
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"grant": grant})
	}
}
