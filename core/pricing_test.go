package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/open-rails/grantkit/core"
	granttest "github.com/open-rails/grantkit/testing"
)

func TestResolvePrice(t *testing.T) {
	fx := granttest.NewFixture(t)
	ctx := context.Background()
	fx.Store.ClearPrices()
	fx.Store.SetPrice(core.PromoFeatured, 7, core.TierAny, 500)
	fx.Store.SetPrice(core.PromoFeatured, 7, core.TierPremium, 350)

	cents, err := fx.Service.ResolvePrice(ctx, core.PromoFeatured, 7, core.TierPremium)
	if err != nil {
		t.Fatalf("resolve tier price: %v", err)
	}
	if cents != 350 {
		t.Fatalf("tier-specific row must win, got %d", cents)
	}

	cents, err = fx.Service.ResolvePrice(ctx, core.PromoFeatured, 7, core.TierBusiness)
	if err != nil {
		t.Fatalf("resolve fallback price: %v", err)
	}
	if cents != 500 {
		t.Fatalf("expected the default row, got %d", cents)
	}

	_, err = fx.Service.ResolvePrice(ctx, core.PromoFeatured, 30, core.TierBusiness)
	if !errors.Is(err, core.ErrPricingNotFound) {
		t.Fatalf("expected ErrPricingNotFound, got %v", err)
	}
}

func TestResolvePriceZeroIsValid(t *testing.T) {
	fx := granttest.NewFixture(t)
	fx.Store.ClearPrices()
	fx.Store.SetPrice(core.PromoBump, 3, core.TierAny, 0)

	cents, err := fx.Service.ResolvePrice(context.Background(), core.PromoBump, 3, core.TierBasic)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cents != 0 {
		t.Fatalf("a zero-cent row is a real price, got %d", cents)
	}
}
