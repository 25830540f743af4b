package core_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/open-rails/grantkit/core"
	granttest "github.com/open-rails/grantkit/testing"
)

func TestApplyPromotionProjectsFlag(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)

	grant, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.PromoFeatured,
		DurationDays: 7,
		RequestedBy:  owner,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if !grant.Active {
		t.Fatal("expected grant to be active")
	}
	wantExpiry := fx.Now().Add(7 * 24 * time.Hour)
	if !grant.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expected expiry %v, got %v", wantExpiry, grant.ExpiresAt)
	}
	if grant.PaymentRef == "" {
		t.Fatal("expected a generated payment ref")
	}

	st, err := fx.Store.Ads().FlagState(context.Background(), adID, core.PromoFeatured)
	if err != nil {
		t.Fatalf("flag state: %v", err)
	}
	if !st.On {
		t.Fatal("expected featured flag set")
	}
	if st.Until == nil || !st.Until.Equal(grant.ExpiresAt) {
		t.Fatalf("expected flag until %v, got %v", grant.ExpiresAt, st.Until)
	}
}

func TestApplyPromotionInvalidDuration(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)

	_, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.PromoFeatured,
		DurationDays: 10,
		RequestedBy:  owner,
	})
	if !errors.Is(err, core.ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	st, _ := fx.Store.Ads().FlagState(context.Background(), adID, core.PromoFeatured)
	if st.On {
		t.Fatal("flag must not change on a rejected apply")
	}
}

func TestApplyPromotionRejectsVerificationType(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)

	_, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.VerifyBusiness,
		DurationDays: 7,
		RequestedBy:  owner,
	})
	if !errors.Is(err, core.ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestApplyPromotionTargetChecks(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()

	_, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         uuid.New(),
		Type:         core.PromoUrgent,
		DurationDays: 3,
		RequestedBy:  owner,
	})
	if !errors.Is(err, core.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}

	adID := fx.SeedAd(owner, core.TierBasic)
	fx.Store.MarkDeleted(core.KindAd, adID)
	_, err = fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.PromoUrgent,
		DurationDays: 3,
		RequestedBy:  owner,
	})
	if !errors.Is(err, core.ErrTargetDeleted) {
		t.Fatalf("expected ErrTargetDeleted, got %v", err)
	}

	liveAd := fx.SeedAd(owner, core.TierBasic)
	_, err = fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         liveAd,
		Type:         core.PromoUrgent,
		DurationDays: 3,
		RequestedBy:  uuid.New(),
	})
	if !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-owner, got %v", err)
	}
}

func TestApplyPromotionPricing(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierPremium)

	// Tier-specific row wins over the default.
	fx.Store.SetPrice(core.PromoFeatured, 7, core.TierPremium, 1234)
	grant, err := fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.PromoFeatured,
		DurationDays: 7,
		RequestedBy:  owner,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if grant.PriceCents != 1234 {
		t.Fatalf("expected tier price 1234, got %d", grant.PriceCents)
	}

	// No tier row: falls back to the tier-agnostic default.
	grant, err = fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.PromoSticky,
		DurationDays: 7,
		RequestedBy:  owner,
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if grant.PriceCents != 700 {
		t.Fatalf("expected default price 700, got %d", grant.PriceCents)
	}

	// No row at all: refuse to create the grant.
	fx.Store.ClearPrices()
	_, err = fx.Service.ApplyPromotion(context.Background(), core.ApplyPromotionInput{
		AdID:         adID,
		Type:         core.PromoBump,
		DurationDays: 3,
		RequestedBy:  owner,
	})
	if !errors.Is(err, core.ErrPricingNotFound) {
		t.Fatalf("expected ErrPricingNotFound, got %v", err)
	}
}

func TestApplyPromotionReplacesActiveGrant(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)
	ctx := context.Background()

	first, err := fx.Service.ApplyPromotion(ctx, core.ApplyPromotionInput{
		AdID: adID, Type: core.PromoFeatured, DurationDays: 7, RequestedBy: owner,
	})
	if err != nil {
		t.Fatalf("first apply: %v", err)
	}
	fx.Advance(24 * time.Hour)
	second, err := fx.Service.ApplyPromotion(ctx, core.ApplyPromotionInput{
		AdID: adID, Type: core.PromoFeatured, DurationDays: 30, RequestedBy: owner,
	})
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}

	g, err := fx.Store.Grants().ByID(ctx, first.ID)
	if err != nil {
		t.Fatalf("load first grant: %v", err)
	}
	if g.Active {
		t.Fatal("re-applying the same type must deactivate the prior grant")
	}
	active, err := fx.Store.Grants().ActiveByTargetAndType(ctx, core.KindAd, adID, core.PromoFeatured)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 1 || active[0].ID != second.ID {
		t.Fatalf("expected exactly the new grant active, got %d", len(active))
	}

	st, _ := fx.Store.Ads().FlagState(ctx, adID, core.PromoFeatured)
	if st.Until == nil || !st.Until.Equal(second.ExpiresAt) {
		t.Fatalf("expected flag until %v, got %v", second.ExpiresAt, st.Until)
	}
}

func TestApplyPromotionFlagsAreDisjoint(t *testing.T) {
	fx := granttest.NewFixture(t)
	owner := uuid.New()
	adID := fx.SeedAd(owner, core.TierBasic)
	ctx := context.Background()

	featured, err := fx.Service.ApplyPromotion(ctx, core.ApplyPromotionInput{
		AdID: adID, Type: core.PromoFeatured, DurationDays: 15, RequestedBy: owner,
	})
	if err != nil {
		t.Fatalf("apply featured: %v", err)
	}
	if _, err := fx.Service.ApplyPromotion(ctx, core.ApplyPromotionInput{
		AdID: adID, Type: core.PromoUrgent, DurationDays: 3, RequestedBy: owner,
	}); err != nil {
		t.Fatalf("apply urgent: %v", err)
	}

	st, _ := fx.Store.Ads().FlagState(ctx, adID, core.PromoFeatured)
	if !st.On || st.Until == nil || !st.Until.Equal(featured.ExpiresAt) {
		t.Fatalf("featured pair must be untouched by the urgent apply, got %+v", st)
	}
	sticky, _ := fx.Store.Ads().FlagState(ctx, adID, core.PromoSticky)
	if sticky.On {
		t.Fatal("sticky pair must stay clear")
	}
}
