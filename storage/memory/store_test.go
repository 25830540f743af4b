package memorystore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/open-rails/grantkit/core"
)

func TestAtomicRollsBackOnFailure(t *testing.T) {
	s := New()
	ctx := context.Background()
	adID := uuid.New()
	s.AddAd(adID, uuid.New(), core.TierBasic)

	grant := &core.Grant{
		ID:         uuid.New(),
		TargetKind: core.KindAd,
		TargetID:   adID,
		Type:       core.PromoFeatured,
		Active:     true,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	boom := errors.New("boom")
	err := s.Atomic(ctx, func(ctx context.Context) error {
		if err := s.Grants().Insert(ctx, grant); err != nil {
			return err
		}
		until := grant.ExpiresAt
		if err := s.Ads().SetFlag(ctx, adID, core.PromoFeatured, true, &until); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the unit's error, got %v", err)
	}

	got, err := s.Grants().ByID(ctx, grant.ID)
	if err != nil {
		t.Fatalf("by id: %v", err)
	}
	if got != nil {
		t.Fatal("insert inside a failed unit must be rolled back")
	}
	st, err := s.Ads().FlagState(ctx, adID, core.PromoFeatured)
	if err != nil {
		t.Fatalf("flag state: %v", err)
	}
	if st.On {
		t.Fatal("flag write inside a failed unit must be rolled back")
	}
}

func TestAtomicCommitsOnSuccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	grant := &core.Grant{ID: uuid.New(), Active: true, ExpiresAt: time.Now().Add(time.Hour)}

	if err := s.Atomic(ctx, func(ctx context.Context) error {
		return s.Grants().Insert(ctx, grant)
	}); err != nil {
		t.Fatalf("atomic: %v", err)
	}
	got, _ := s.Grants().ByID(ctx, grant.ID)
	if got == nil {
		t.Fatal("committed insert must be visible")
	}
}

func TestDeactivateUnknownGrant(t *testing.T) {
	s := New()
	err := s.Grants().Deactivate(context.Background(), uuid.New())
	if !errors.Is(err, core.ErrGrantNotFound) {
		t.Fatalf("expected ErrGrantNotFound, got %v", err)
	}
}

func TestSetFlagUnknownTarget(t *testing.T) {
	s := New()
	err := s.Ads().SetFlag(context.Background(), uuid.New(), core.PromoFeatured, true, nil)
	if !errors.Is(err, core.ErrTargetNotFound) {
		t.Fatalf("expected ErrTargetNotFound, got %v", err)
	}
}
