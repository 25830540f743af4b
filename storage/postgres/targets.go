package pgstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/open-rails/grantkit/core"
)

// flagPair names the denormalized columns owned by one entitlement type.
// Each type owns a disjoint pair, so concurrent writes to different types on
// the same row cannot corrupt each other.
type flagPair struct {
	boolCol  string
	untilCol string
}

var adFlags = map[core.EntitlementType]flagPair{
	core.PromoFeatured: {"is_featured", "featured_until"},
	core.PromoUrgent:   {"is_urgent", "urgent_until"},
	core.PromoSticky:   {"is_sticky", "sticky_until"},
	core.PromoBump:     {"is_bumped", "bumped_until"},
}

var userFlags = map[core.EntitlementType]flagPair{
	core.VerifyBusiness:   {"business_verified", "business_verified_until"},
	core.VerifyIndividual: {"individual_verified", "individual_verified_until"},
}

// Column names come from the fixed maps above, never from input.
func pair(flags map[core.EntitlementType]flagPair, typ core.EntitlementType) (flagPair, error) {
	p, ok := flags[typ]
	if !ok {
		return flagPair{}, fmt.Errorf("pgstore: %w: %q", core.ErrInvalidType, typ)
	}
	return p, nil
}

func setFlag(ctx context.Context, s *Store, table string, flags map[core.EntitlementType]flagPair, id uuid.UUID, typ core.EntitlementType, on bool, until *time.Time) error {
	p, err := pair(flags, typ)
	if err != nil {
		return err
	}
	tag, err := s.q(ctx).Exec(ctx, `UPDATE `+s.table(table)+` SET `+p.boolCol+`=$2, `+p.untilCol+`=$3, updated_at=NOW() WHERE id=$1`, id, on, until)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return core.ErrTargetNotFound
	}
	return nil
}

func flagState(ctx context.Context, s *Store, table string, flags map[core.EntitlementType]flagPair, id uuid.UUID, typ core.EntitlementType) (core.FlagState, error) {
	p, err := pair(flags, typ)
	if err != nil {
		return core.FlagState{}, err
	}
	var st core.FlagState
	err = s.q(ctx).QueryRow(ctx, `SELECT `+p.boolCol+`, `+p.untilCol+` FROM `+s.table(table)+` WHERE id=$1`, id).Scan(&st.On, &st.Until)
	if errors.Is(err, pgx.ErrNoRows) {
		return core.FlagState{}, core.ErrTargetNotFound
	}
	if err != nil {
		return core.FlagState{}, err
	}
	return st, nil
}

// staleFlags scans one pair per query; the per-type partial indexes from the
// migrations keep each scan cheap.
func staleFlags(ctx context.Context, s *Store, table string, kind core.TargetKind, flags map[core.EntitlementType]flagPair, now time.Time) ([]core.StaleFlag, error) {
	var out []core.StaleFlag
	for typ, p := range flags {
		rows, err := s.q(ctx).Query(ctx, `SELECT id, `+p.untilCol+` FROM `+s.table(table)+`
			WHERE `+p.boolCol+` AND `+p.untilCol+` IS NOT NULL AND `+p.untilCol+` < $1`, now)
		if err != nil {
			return nil, err
		}
		for rows.Next() {
			var id uuid.UUID
			var until time.Time
			if err := rows.Scan(&id, &until); err != nil {
				rows.Close()
				return nil, err
			}
			out = append(out, core.StaleFlag{Kind: kind, TargetID: id, Type: typ, Until: until})
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// --- ads -------------------------------------------------------------------

type adStore struct{ s *Store }

func (a *adStore) Kind() core.TargetKind { return core.KindAd }

func (a *adStore) Resolve(ctx context.Context, id uuid.UUID) (*core.TargetInfo, error) {
	var info core.TargetInfo
	var deletedAt *time.Time
	err := a.s.q(ctx).QueryRow(ctx, `SELECT id, owner_id, tier, deleted_at FROM `+a.s.table("ads")+` WHERE id=$1`, id).
		Scan(&info.ID, &info.OwnerID, &info.Tier, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	info.Deleted = deletedAt != nil
	return &info, nil
}

func (a *adStore) FlagState(ctx context.Context, id uuid.UUID, typ core.EntitlementType) (core.FlagState, error) {
	return flagState(ctx, a.s, "ads", adFlags, id, typ)
}

func (a *adStore) SetFlag(ctx context.Context, id uuid.UUID, typ core.EntitlementType, on bool, until *time.Time) error {
	return setFlag(ctx, a.s, "ads", adFlags, id, typ, on, until)
}

func (a *adStore) StaleFlags(ctx context.Context, now time.Time) ([]core.StaleFlag, error) {
	return staleFlags(ctx, a.s, "ads", core.KindAd, adFlags, now)
}

// --- users -----------------------------------------------------------------

type userStore struct{ s *Store }

func (u *userStore) Kind() core.TargetKind { return core.KindUser }

func (u *userStore) Resolve(ctx context.Context, id uuid.UUID) (*core.TargetInfo, error) {
	var info core.TargetInfo
	var deletedAt *time.Time
	err := u.s.q(ctx).QueryRow(ctx, `SELECT id, tier, deleted_at FROM `+u.s.table("users")+` WHERE id=$1`, id).
		Scan(&info.ID, &info.Tier, &deletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	// A user account owns itself.
	info.OwnerID = info.ID
	info.Deleted = deletedAt != nil
	return &info, nil
}

func (u *userStore) FlagState(ctx context.Context, id uuid.UUID, typ core.EntitlementType) (core.FlagState, error) {
	return flagState(ctx, u.s, "users", userFlags, id, typ)
}

func (u *userStore) SetFlag(ctx context.Context, id uuid.UUID, typ core.EntitlementType, on bool, until *time.Time) error {
	return setFlag(ctx, u.s, "users", userFlags, id, typ, on, until)
}

func (u *userStore) StaleFlags(ctx context.Context, now time.Time) ([]core.StaleFlag, error) {
	return staleFlags(ctx, u.s, "users", core.KindUser, userFlags, now)
}
