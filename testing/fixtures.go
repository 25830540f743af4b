// Package testing provides utilities for testing applications that embed
// grantkit. The fixture wires the engine to an in-memory store with a frozen
// clock, so entitlement lifecycles can be driven through time without
// sleeping or a database.
//
// Example usage:
//
//	fx := granttest.NewFixture(t)
//	adID := fx.SeedAd(ownerID, core.TierBasic)
//	grant, _ := fx.Service.ApplyPromotion(ctx, core.ApplyPromotionInput{ ... })
//	fx.Advance(8 * 24 * time.Hour)
//	fx.Service.RunPromotionExpirySweep(ctx)
package testing

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/grantkit/core"
	memorystore "github.com/open-rails/grantkit/storage/memory"
)

// Fixture is a ready-to-use engine over an in-memory store.
type Fixture struct {
	Store   *memorystore.Store
	Service *core.Service

	mu  sync.Mutex
	now time.Time
}

// NewFixture builds a fixture with every promotion type priced at the
// tier-agnostic default for every menu duration, and the clock frozen at an
// arbitrary fixed instant. Logs are discarded.
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	store := memorystore.New()
	for _, typ := range core.PromotionTypes {
		for _, days := range core.Durations {
			store.SetPrice(typ, days, core.TierAny, int64(days)*100)
		}
	}

	f := &Fixture{
		Store: store,
		now:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	svc, err := core.New(core.Config{
		DB:            store,
		Grants:        store.Grants(),
		Verifications: store.Verifications(),
		Targets:       []core.TargetStore{store.Ads(), store.Users()},
		Prices:        store.Prices(),
		Logger:        log,
		Now:           f.Now,
	})
	if err != nil {
		t.Fatalf("build fixture service: %v", err)
	}
	f.Service = svc
	return f
}

// Now is the frozen clock. Pass it as core.Config.Now when wiring a custom
// service around the fixture's store.
func (f *Fixture) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Advance moves the frozen clock forward.
func (f *Fixture) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

// SeedAd registers an ad and returns its id.
func (f *Fixture) SeedAd(ownerID uuid.UUID, tier core.AccountTier) uuid.UUID {
	id := uuid.New()
	f.Store.AddAd(id, ownerID, tier)
	return id
}

// SeedUser registers a user account and returns its id.
func (f *Fixture) SeedUser(tier core.AccountTier) uuid.UUID {
	id := uuid.New()
	f.Store.AddUser(id, tier)
	return id
}
