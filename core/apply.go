package core

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ApplyPromotionInput is a validated-upstream request to promote an ad.
// Authorization has already run at the gateway; the ownership check here is a
// last-line sanity check, surfaced as ErrUnauthorized, never retried.
type ApplyPromotionInput struct {
	AdID         uuid.UUID
	Type         EntitlementType
	DurationDays int
	RequestedBy  uuid.UUID

	PaymentRef    string
	PaymentMethod string
}

// ApplyPromotion creates a promotion grant and projects its flag pair in one
// atomic unit of work. On success the ad's flag pair for the type reads
// (true, expiresAt) immediately; on failure nothing is persisted.
//
// Re-applying a type that is already active replaces the prior grant: the old
// rows are deactivated in the same transaction, so at most one active grant
// exists per (ad, type) and the flag always mirrors exactly one row.
func (s *Service) ApplyPromotion(ctx context.Context, in ApplyPromotionInput) (*Grant, error) {
	if !in.Type.IsPromotion() {
		return nil, fmt.Errorf("%q: %w", in.Type, ErrInvalidType)
	}
	if !ValidDuration(in.DurationDays) {
		return nil, fmt.Errorf("%d days: %w", in.DurationDays, ErrInvalidDuration)
	}

	ads, err := s.target(KindAd)
	if err != nil {
		return nil, err
	}
	info, err := ads.Resolve(ctx, in.AdID)
	if err != nil {
		return nil, fmt.Errorf("resolve ad %s: %w", in.AdID, err)
	}
	if info == nil {
		return nil, fmt.Errorf("ad %s: %w", in.AdID, ErrTargetNotFound)
	}
	if info.Deleted {
		return nil, fmt.Errorf("ad %s: %w", in.AdID, ErrTargetDeleted)
	}
	if in.RequestedBy != uuid.Nil && info.OwnerID != uuid.Nil && in.RequestedBy != info.OwnerID {
		return nil, fmt.Errorf("ad %s: %w", in.AdID, ErrUnauthorized)
	}

	price, err := s.ResolvePrice(ctx, in.Type, in.DurationDays, info.Tier)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(time.Duration(in.DurationDays) * 24 * time.Hour)
	paymentRef := in.PaymentRef
	if paymentRef == "" {
		paymentRef = NewPaymentRef()
	}
	grant := &Grant{
		ID:            uuid.New(),
		TargetKind:    KindAd,
		TargetID:      in.AdID,
		Type:          in.Type,
		Tier:          info.Tier,
		DurationDays:  in.DurationDays,
		PriceCents:    price,
		StartsAt:      now,
		ExpiresAt:     expiresAt,
		Active:        true,
		PaymentRef:    paymentRef,
		PaymentMethod: in.PaymentMethod,
		CreatedBy:     in.RequestedBy,
		CreatedAt:     now,
	}

	err = s.db.Atomic(ctx, func(ctx context.Context) error {
		prior, err := s.grants.ActiveByTargetAndType(ctx, KindAd, in.AdID, in.Type)
		if err != nil {
			return fmt.Errorf("list prior grants: %w", err)
		}
		for _, p := range prior {
			if err := s.grants.Deactivate(ctx, p.ID); err != nil {
				return fmt.Errorf("replace grant %s: %w", p.ID, err)
			}
		}
		if err := s.grants.Insert(ctx, grant); err != nil {
			return fmt.Errorf("insert grant: %w", err)
		}
		return ads.SetFlag(ctx, in.AdID, in.Type, true, &expiresAt)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Applied(in.Type)
	s.log.WithFields(logrus.Fields{
		"grant_id": grant.ID,
		"ad_id":    in.AdID,
		"type":     in.Type,
		"days":     in.DurationDays,
		"price":    price,
	}).Info("promotion applied")
	s.notify(ctx, Notification{
		Event:      EventPromotionGranted,
		TargetKind: KindAd,
		TargetID:   in.AdID,
		UserID:     info.OwnerID,
		Type:       in.Type,
		ExpiresAt:  &expiresAt,
	})
	return grant, nil
}

// RevokeGrant deactivates a grant ahead of its expiry and clears the target's
// flag pair for the grant's type, atomically. Revoking an already-inactive
// grant is a no-op.
func (s *Service) RevokeGrant(ctx context.Context, grantID, revokedBy uuid.UUID) error {
	g, err := s.grants.ByID(ctx, grantID)
	if err != nil {
		return fmt.Errorf("load grant %s: %w", grantID, err)
	}
	if g == nil {
		return fmt.Errorf("grant %s: %w", grantID, ErrGrantNotFound)
	}
	if !g.Active {
		return nil
	}
	ts, err := s.target(g.TargetKind)
	if err != nil {
		return err
	}
	err = s.db.Atomic(ctx, func(ctx context.Context) error {
		if err := s.grants.Deactivate(ctx, g.ID); err != nil {
			return err
		}
		return ts.SetFlag(ctx, g.TargetID, g.Type, false, nil)
	})
	if err != nil {
		return fmt.Errorf("revoke grant %s: %w", grantID, err)
	}

	s.log.WithFields(logrus.Fields{
		"grant_id":   grantID,
		"revoked_by": revokedBy,
		"type":       g.Type,
	}).Info("grant revoked")
	s.notify(ctx, Notification{
		Event:      EventPromotionRevoked,
		TargetKind: g.TargetKind,
		TargetID:   g.TargetID,
		Type:       g.Type,
	})
	return nil
}
