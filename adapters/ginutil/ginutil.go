// Package ginutil carries the small shared pieces of the gin adapter:
// response helpers, the rate limiter boundary, and caller identity.
package ginutil

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Named rate limit buckets used by the handlers.
const (
	RLPromotionApply     = "promotion_apply"
	RLVerificationSubmit = "verification_submit"
	RLAdminReview        = "admin_review"
	RLAdminSweepRun      = "admin_sweep_run"
)

// RateLimiter is satisfied by both ratelimit implementations.
type RateLimiter interface {
	AllowNamed(bucket, key string) (bool, error)
}

// CallerHeader is set by the upstream gateway after authentication.
// Authorization itself has already run there; the engine only needs the
// identity for ownership checks and audit fields.
const CallerHeader = "X-User-ID"

// CallerID returns the authenticated caller's id, or "" when the request is
// anonymous. A value placed on the gin context (key "caller_id", e.g. by a
// host app's own middleware) wins over the gateway header.
func CallerID(c *gin.Context) string {
	if v, ok := c.Get("caller_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return c.GetHeader(CallerHeader)
}

// AllowNamed rate-limits by caller id, falling back to client IP for
// anonymous requests. Limiter errors fail open.
func AllowNamed(c *gin.Context, rl RateLimiter, bucket string) bool {
	if rl == nil {
		return true
	}
	key := CallerID(c)
	if key == "" {
		key = c.ClientIP()
	}
	ok, err := rl.AllowNamed(bucket, key)
	if err != nil {
		return true
	}
	return ok
}

func BadRequest(c *gin.Context, code string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": code})
}

func NotFound(c *gin.Context, code string) {
	c.JSON(http.StatusNotFound, gin.H{"error": code})
}

func Forbidden(c *gin.Context, code string) {
	c.JSON(http.StatusForbidden, gin.H{"error": code})
}

func Conflict(c *gin.Context, code string) {
	c.JSON(http.StatusConflict, gin.H{"error": code})
}

func TooMany(c *gin.Context) {
	c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate_limited"})
}

func ServerErr(c *gin.Context, code string) {
	c.JSON(http.StatusInternalServerError, gin.H{"error": code})
}
