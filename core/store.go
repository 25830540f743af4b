package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DB scopes a group of store writes to one atomic unit of work.
// Implementations either commit everything inside fn or nothing; nested
// calls join the outer unit.
type DB interface {
	Atomic(ctx context.Context, fn func(ctx context.Context) error) error
}

// GrantStore persists promotion grants.
type GrantStore interface {
	Insert(ctx context.Context, g *Grant) error
	ByID(ctx context.Context, id uuid.UUID) (*Grant, error)
	// ActiveByTargetAndType returns active grants for one (target, type) pair.
	ActiveByTargetAndType(ctx context.Context, kind TargetKind, targetID uuid.UUID, typ EntitlementType) ([]Grant, error)
	// Expired returns the sweep candidate snapshot: active grants whose
	// expires_at is strictly before now.
	Expired(ctx context.Context, now time.Time) ([]Grant, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// VerificationStore persists identity verification requests.
type VerificationStore interface {
	Insert(ctx context.Context, r *VerificationRequest) error
	ByID(ctx context.Context, id uuid.UUID) (*VerificationRequest, error)
	Update(ctx context.Context, r *VerificationRequest) error
	// Expired returns approved requests with a non-null expiry in the past.
	// Indefinite approvals (nil expiry) are never candidates.
	Expired(ctx context.Context, now time.Time) ([]VerificationRequest, error)
}

// TargetStore is the per-entity-kind flag projection. Implemented once per
// concrete entity (ads, users) so the sweep and reconciler algorithms are
// written once and parametrized over target kind.
type TargetStore interface {
	Kind() TargetKind
	// Resolve returns nil when no such target exists.
	Resolve(ctx context.Context, id uuid.UUID) (*TargetInfo, error)
	FlagState(ctx context.Context, id uuid.UUID, typ EntitlementType) (FlagState, error)
	// SetFlag writes exactly one flag pair; other entitlement types on the
	// same target own disjoint columns and are untouched.
	SetFlag(ctx context.Context, id uuid.UUID, typ EntitlementType, on bool, until *time.Time) error
	// StaleFlags returns flag pairs set to true whose "until" is before now.
	// Pairs with a nil "until" (indefinite) are never stale.
	StaleFlags(ctx context.Context, now time.Time) ([]StaleFlag, error)
}

// PriceBook is the pricing table backend. Price returns ok=false when no
// row exists for the exact (type, days, tier) tuple; fallback resolution
// lives in the service.
type PriceBook interface {
	Price(ctx context.Context, typ EntitlementType, days int, tier AccountTier) (cents int64, ok bool, err error)
}
