package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	grantgin "github.com/open-rails/grantkit/adapters/gin"
	"github.com/open-rails/grantkit/adapters/ginutil"
	"github.com/open-rails/grantkit/core"
	granttest "github.com/open-rails/grantkit/testing"
)

func init() { gin.SetMode(gin.TestMode) }

// denyAll rejects every request, for exercising the 429 path.
type denyAll struct{}

func (denyAll) AllowNamed(bucket, key string) (bool, error) { return false, nil }

func newRouter(fx *granttest.Fixture, rl ginutil.RateLimiter) *gin.Engine {
	r := gin.New()
	grantgin.Mount(r, fx.Service, rl)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if caller != "" {
		req.Header.Set(ginutil.CallerHeader, caller)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPromotionApplyEndpoint(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)
	r := newRouter(fx, nil)

	w := doJSON(t, r, http.MethodPost, "/promotions", owner.String(), gin.H{
		"ad_id": adID.String(), "type": "featured", "duration_days": 7,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Grant core.Grant `json:"grant"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Grant.Type != core.PromoFeatured || !resp.Grant.Active {
		t.Fatalf("unexpected grant %+v", resp.Grant)
	}
}

func TestPromotionApplyErrors(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)
	r := newRouter(fx, nil)

	// No caller identity.
	w := doJSON(t, r, http.MethodPost, "/promotions", "", gin.H{
		"ad_id": adID.String(), "type": "featured", "duration_days": 7,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without a caller, got %d", w.Code)
	}

	// Off-menu duration.
	w = doJSON(t, r, http.MethodPost, "/promotions", owner.String(), gin.H{
		"ad_id": adID.String(), "type": "featured", "duration_days": 9,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad duration, got %d", w.Code)
	}

	// Unknown ad.
	w = doJSON(t, r, http.MethodPost, "/promotions", owner.String(), gin.H{
		"ad_id": uuid.NewString(), "type": "featured", "duration_days": 7,
	})
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown ad, got %d", w.Code)
	}

	// Someone else's ad.
	w = doJSON(t, r, http.MethodPost, "/promotions", uuid.NewString(), gin.H{
		"ad_id": adID.String(), "type": "featured", "duration_days": 7,
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a non-owner, got %d", w.Code)
	}
}

func TestPromotionApplyRateLimited(t *testing.T) {
	fx := granttest.NewFixture(t)
	r := newRouter(fx, denyAll{})

	w := doJSON(t, r, http.MethodPost, "/promotions", uuid.NewString(), gin.H{})
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
}

func TestAdminGrantRevokeEndpoint(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)
	r := newRouter(fx, nil)

	grant, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID: adID, Type: core.PromoSticky, DurationDays: 15, RequestedBy: owner,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	admin := uuid.NewString()
	w := doJSON(t, r, http.MethodPost, "/admin/grants/"+grant.ID.String()+"/revoke", admin, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/admin/grants/"+uuid.NewString()+"/revoke", admin, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown grant, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/admin/grants/not-a-uuid/revoke", admin, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", w.Code)
	}
}

func TestVerificationReviewFlow(t *testing.T) {
	fx := granttest.NewFixture(t)
	userID := fx.SeedUser(core.TierBusiness)
	r := newRouter(fx, nil)

	w := doJSON(t, r, http.MethodPost, "/verification", userID.String(), gin.H{
		"type": "business", "duration_days": 30,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var submitted struct {
		Request core.VerificationRequest `json:"request"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}

	reviewer := uuid.NewString()
	approvePath := fmt.Sprintf("/admin/verification/%s/approve", submitted.Request.ID)
	w = doJSON(t, r, http.MethodPost, approvePath, reviewer, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var approved struct {
		Request core.VerificationRequest `json:"request"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &approved); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if approved.Request.Status != core.VerificationApproved {
		t.Fatalf("expected approved, got %s", approved.Request.Status)
	}
	wantExpiry := fx.Now().Add(30 * 24 * time.Hour)
	if approved.Request.ExpiresAt == nil || !approved.Request.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, approved.Request.ExpiresAt)
	}

	// A second review of the same request conflicts.
	w = doJSON(t, r, http.MethodPost, approvePath, reviewer, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 re-reviewing, got %d", w.Code)
	}
}

func TestVerificationRejectRequiresReason(t *testing.T) {
	fx := granttest.NewFixture(t)
	userID := fx.SeedUser(core.TierBasic)
	r := newRouter(fx, nil)

	w := doJSON(t, r, http.MethodPost, "/verification", userID.String(), gin.H{"type": "individual"})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d: %s", w.Code, w.Body.String())
	}
	var submitted struct {
		Request core.VerificationRequest `json:"request"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &submitted); err != nil {
		t.Fatalf("decode: %v", err)
	}
	rejectPath := fmt.Sprintf("/admin/verification/%s/reject", submitted.Request.ID)
	reviewer := uuid.NewString()

	w = doJSON(t, r, http.MethodPost, rejectPath, reviewer, gin.H{"reason": "  "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a blank reason, got %d", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, rejectPath, reviewer, gin.H{"reason": "mismatched documents"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminSweepRunEndpoint(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)
	r := newRouter(fx, nil)

	if _, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID: adID, Type: core.PromoUrgent, DurationDays: 3, RequestedBy: owner,
	}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	fx.Advance(4 * 24 * time.Hour)

	w := doJSON(t, r, http.MethodPost, "/admin/sweeps/promotions/run", uuid.NewString(), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Report core.SweepReport `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Report.Deactivated != 1 {
		t.Fatalf("expected one deactivation, got %+v", resp.Report)
	}

	w = doJSON(t, r, http.MethodPost, "/admin/sweeps/nonsense/run", uuid.NewString(), nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for an unknown sweep, got %d", w.Code)
	}
}
