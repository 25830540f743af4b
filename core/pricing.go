package core

import (
	"context"
	"fmt"
)

// ResolvePrice looks up the price for (type, days, tier). A tier-specific row
// wins; if none exists the tier-agnostic default row is used; if neither
// exists the lookup fails with ErrPricingNotFound. No entitlement may be
// created without a resolvable price.
func (s *Service) ResolvePrice(ctx context.Context, typ EntitlementType, days int, tier AccountTier) (int64, error) {
	if tier != TierAny {
		cents, ok, err := s.prices.Price(ctx, typ, days, tier)
		if err != nil {
			return 0, fmt.Errorf("price lookup (%s/%dd/%s): %w", typ, days, tier, err)
		}
		if ok {
			return cents, nil
		}
	}
	cents, ok, err := s.prices.Price(ctx, typ, days, TierAny)
	if err != nil {
		return 0, fmt.Errorf("price lookup (%s/%dd/default): %w", typ, days, err)
	}
	if !ok {
		return 0, fmt.Errorf("%s %dd for tier %q: %w", typ, days, tier, ErrPricingNotFound)
	}
	return cents, nil
}
