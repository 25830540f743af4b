package pgstore

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/open-rails/grantkit/core"
)

type priceBook struct{ s *Store }

// Price looks up the exact (type, days, tier) row. The tier-agnostic default
// is stored with an empty tier; fallback order is the service's concern.
func (p *priceBook) Price(ctx context.Context, typ core.EntitlementType, days int, tier core.AccountTier) (int64, bool, error) {
	var cents int64
	err := p.s.q(ctx).QueryRow(ctx, `SELECT price_cents FROM `+p.s.table("promotion_prices")+`
		WHERE type=$1 AND duration_days=$2 AND tier=$3`, typ, days, tier).Scan(&cents)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return cents, true, nil
}
