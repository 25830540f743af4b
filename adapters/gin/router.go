// Package grantgin mounts the engine's HTTP surface on a gin router.
package grantgin

import (
	"github.com/gin-gonic/gin"

	"github.com/open-rails/grantkit/adapters/gin/handlers"
	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
)

// Mount registers all grantkit routes on r. The admin group carries no auth
// of its own; gate it at the gateway or wrap it with the host app's
// middleware before mounting.
func Mount(r gin.IRouter, svc *core.Service, rl ginutil.RateLimiter) {
	r.POST("/promotions", handlers.HandlePromotionApplyPOST(svc, rl))
	r.POST("/verification", handlers.HandleVerificationRequestPOST(svc, rl))

	admin := r.Group("/admin")
	admin.POST("/grants/:grant_id/revoke", handlers.HandleAdminGrantRevokePOST(svc, rl))
	admin.POST("/verification/:request_id/approve", handlers.HandleAdminVerificationApprovePOST(svc, rl))
	admin.POST("/verification/:request_id/reject", handlers.HandleAdminVerificationRejectPOST(svc, rl))
	admin.POST("/sweeps/:name/run", handlers.HandleAdminSweepRunPOST(svc, rl))
}
