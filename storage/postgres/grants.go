package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/open-rails/grantkit/core"
)

type grantStore struct{ s *Store }

const grantColumns = `id, target_kind, target_id, type, tier, duration_days, price_cents,
	starts_at, expires_at, active, payment_ref, payment_method, created_by, created_at`

func (g *grantStore) Insert(ctx context.Context, grant *core.Grant) error {
	_, err := g.s.q(ctx).Exec(ctx, `INSERT INTO `+g.s.table("promotions")+` (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`,
		grant.ID, grant.TargetKind, grant.TargetID, grant.Type, grant.Tier,
		grant.DurationDays, grant.PriceCents, grant.StartsAt, grant.ExpiresAt,
		grant.Active, grant.PaymentRef, grant.PaymentMethod, grant.CreatedBy, grant.CreatedAt)
	return err
}

func (g *grantStore) ByID(ctx context.Context, id uuid.UUID) (*core.Grant, error) {
	row := g.s.q(ctx).QueryRow(ctx, `SELECT `+grantColumns+` FROM `+g.s.table("promotions")+` WHERE id=$1`, id)
	grant, err := scanGrant(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return grant, nil
}

func (g *grantStore) ActiveByTargetAndType(ctx context.Context, kind core.TargetKind, targetID uuid.UUID, typ core.EntitlementType) ([]core.Grant, error) {
	rows, err := g.s.q(ctx).Query(ctx, `SELECT `+grantColumns+` FROM `+g.s.table("promotions")+`
		WHERE active AND target_kind=$1 AND target_id=$2 AND type=$3`, kind, targetID, typ)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

func (g *grantStore) Expired(ctx context.Context, now time.Time) ([]core.Grant, error) {
	rows, err := g.s.q(ctx).Query(ctx, `SELECT `+grantColumns+` FROM `+g.s.table("promotions")+`
		WHERE active AND expires_at < $1 ORDER BY expires_at`, now)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

func (g *grantStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := g.s.q(ctx).Exec(ctx, `UPDATE `+g.s.table("promotions")+` SET active=false WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrGrantNotFound
	}
	return nil
}

func scanGrant(row pgx.Row) (*core.Grant, error) {
	var g core.Grant
	err := row.Scan(&g.ID, &g.TargetKind, &g.TargetID, &g.Type, &g.Tier,
		&g.DurationDays, &g.PriceCents, &g.StartsAt, &g.ExpiresAt,
		&g.Active, &g.PaymentRef, &g.PaymentMethod, &g.CreatedBy, &g.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func collectGrants(rows pgx.Rows) ([]core.Grant, error) {
	defer rows.Close()
	var out []core.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}
