package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

// HandleAdminSweepRunPOST kicks one sweep outside its schedule. Sweeps are
// idempotent, so an extra run is always safe.
func HandleAdminSweepRunPOST(svc *core.Service, rl ginutil.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ginutil.AllowNamed(c, rl, ginutil.RLAdminSweepRun) {
			ginutil.TooMany(c)
			return
		}
		var (
			report core.SweepReport
			err    error
		)
		switch c.Param("name") {
		case core.FamilyPromotions:
			report, err = svc.RunPromotionExpirySweep(c.Request.Context())
		case core.FamilyVerification:
			report, err = svc.RunVerificationExpirySweep(c.Request.Context())
		case core.FamilyOrphans:
			report, err = svc.RunOrphanSweep(c.Request.Context())
		default:
			ginutil.NotFound(c, "unknown_sweep")
			return
		}
		if err != nil {
			ginutil.ServerErr(c, "sweep_failed")
			return
		}
		c.JSON(http.StatusOK, gin.H{"report": report})
	}
}
