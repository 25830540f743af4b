// Package memorystore is an in-memory implementation of the core store
// interfaces. It backs the engine's unit tests and works as a single-node
// dev fallback when Postgres is unavailable.
package memorystore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/open-rails/grantkit/core"
)

type targetRecord struct {
	info  core.TargetInfo
	flags map[core.EntitlementType]core.FlagState
}

func (r *targetRecord) clone() *targetRecord {
	cp := &targetRecord{info: r.info, flags: make(map[core.EntitlementType]core.FlagState, len(r.flags))}
	for k, v := range r.flags {
		cp.flags[k] = v
	}
	return cp
}

type priceKey struct {
	typ  core.EntitlementType
	days int
	tier core.AccountTier
}

// Store holds everything behind one mutex. Atomic snapshots the maps and
// restores them if the unit of work fails, so rollback semantics match the
// Postgres store closely enough for the engine's atomicity tests.
type Store struct {
	mu       sync.Mutex
	grants   map[uuid.UUID]core.Grant
	requests map[uuid.UUID]core.VerificationRequest
	targets  map[core.TargetKind]map[uuid.UUID]*targetRecord
	prices   map[priceKey]int64
}

func New() *Store {
	return &Store{
		grants:   make(map[uuid.UUID]core.Grant),
		requests: make(map[uuid.UUID]core.VerificationRequest),
		targets: map[core.TargetKind]map[uuid.UUID]*targetRecord{
			core.KindAd:   {},
			core.KindUser: {},
		},
		prices: make(map[priceKey]int64),
	}
}

type snapshot struct {
	grants   map[uuid.UUID]core.Grant
	requests map[uuid.UUID]core.VerificationRequest
	targets  map[core.TargetKind]map[uuid.UUID]*targetRecord
}

func (s *Store) snapshotLocked() snapshot {
	snap := snapshot{
		grants:   make(map[uuid.UUID]core.Grant, len(s.grants)),
		requests: make(map[uuid.UUID]core.VerificationRequest, len(s.requests)),
		targets:  make(map[core.TargetKind]map[uuid.UUID]*targetRecord, len(s.targets)),
	}
	for k, v := range s.grants {
		snap.grants[k] = v
	}
	for k, v := range s.requests {
		snap.requests[k] = v
	}
	for kind, recs := range s.targets {
		cp := make(map[uuid.UUID]*targetRecord, len(recs))
		for id, rec := range recs {
			cp[id] = rec.clone()
		}
		snap.targets[kind] = cp
	}
	return snap
}

// Atomic runs fn and rolls the store back to its prior state if fn fails.
// The lock is not held across fn; concurrent writers during a unit of work
// are a non-goal for this store.
func (s *Store) Atomic(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.grants = snap.grants
		s.requests = snap.requests
		s.targets = snap.targets
		s.mu.Unlock()
		return err
	}
	return nil
}

// Grants returns the store's core.GrantStore view.
func (s *Store) Grants() core.GrantStore { return &grantStore{s} }

// Verifications returns the store's core.VerificationStore view.
func (s *Store) Verifications() core.VerificationStore { return &verificationStore{s} }

// Ads returns the ad-kind core.TargetStore view.
func (s *Store) Ads() core.TargetStore { return &targetStore{s: s, kind: core.KindAd} }

// Users returns the user-kind core.TargetStore view.
func (s *Store) Users() core.TargetStore { return &targetStore{s: s, kind: core.KindUser} }

// Prices returns the store's core.PriceBook view.
func (s *Store) Prices() core.PriceBook { return &priceBook{s} }

// --- seeding helpers -------------------------------------------------------

// AddAd registers an ad target.
func (s *Store) AddAd(id, ownerID uuid.UUID, tier core.AccountTier) {
	s.addTarget(core.KindAd, core.TargetInfo{ID: id, OwnerID: ownerID, Tier: tier})
}

// AddUser registers a user target. A user owns itself.
func (s *Store) AddUser(id uuid.UUID, tier core.AccountTier) {
	s.addTarget(core.KindUser, core.TargetInfo{ID: id, OwnerID: id, Tier: tier})
}

func (s *Store) addTarget(kind core.TargetKind, info core.TargetInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.targets[kind][info.ID] = &targetRecord{info: info, flags: make(map[core.EntitlementType]core.FlagState)}
}

// MarkDeleted soft-deletes a target.
func (s *Store) MarkDeleted(kind core.TargetKind, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.targets[kind][id]; ok {
		rec.info.Deleted = true
	}
}

// PutFlag writes a flag pair directly, bypassing grants. Used to fabricate
// drift for reconciler tests.
func (s *Store) PutFlag(kind core.TargetKind, id uuid.UUID, typ core.EntitlementType, on bool, until *time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.targets[kind][id]; ok {
		rec.flags[typ] = core.FlagState{On: on, Until: until}
	}
}

// SetPrice adds a pricing row. Use core.TierAny for the default row.
func (s *Store) SetPrice(typ core.EntitlementType, days int, tier core.AccountTier, cents int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[priceKey{typ, days, tier}] = cents
}

// ClearPrices empties the price book.
func (s *Store) ClearPrices() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices = make(map[priceKey]int64)
}

// DeleteGrant removes a grant row out-of-band, something the engine itself
// never does. Used to fabricate drift for reconciler tests.
func (s *Store) DeleteGrant(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.grants, id)
}

// --- core.GrantStore -------------------------------------------------------

type grantStore struct{ s *Store }

func (g *grantStore) Insert(_ context.Context, grant *core.Grant) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	g.s.grants[grant.ID] = *grant
	return nil
}

func (g *grantStore) ByID(_ context.Context, id uuid.UUID) (*core.Grant, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	if grant, ok := g.s.grants[id]; ok {
		cp := grant
		return &cp, nil
	}
	return nil, nil
}

func (g *grantStore) ActiveByTargetAndType(_ context.Context, kind core.TargetKind, targetID uuid.UUID, typ core.EntitlementType) ([]core.Grant, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	var out []core.Grant
	for _, grant := range g.s.grants {
		if grant.Active && grant.TargetKind == kind && grant.TargetID == targetID && grant.Type == typ {
			out = append(out, grant)
		}
	}
	return out, nil
}

func (g *grantStore) Expired(_ context.Context, now time.Time) ([]core.Grant, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	var out []core.Grant
	for _, grant := range g.s.grants {
		if grant.Active && grant.ExpiresAt.Before(now) {
			out = append(out, grant)
		}
	}
	return out, nil
}

func (g *grantStore) Deactivate(_ context.Context, id uuid.UUID) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	grant, ok := g.s.grants[id]
	if !ok {
		return core.ErrGrantNotFound
	}
	grant.Active = false
	g.s.grants[id] = grant
	return nil
}

// --- core.VerificationStore ------------------------------------------------

type verificationStore struct{ s *Store }

func (v *verificationStore) Insert(_ context.Context, r *core.VerificationRequest) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.requests[r.ID] = *r
	return nil
}

func (v *verificationStore) ByID(_ context.Context, id uuid.UUID) (*core.VerificationRequest, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if r, ok := v.s.requests[id]; ok {
		cp := r
		return &cp, nil
	}
	return nil, nil
}

func (v *verificationStore) Update(_ context.Context, r *core.VerificationRequest) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	if _, ok := v.s.requests[r.ID]; !ok {
		return core.ErrRequestNotFound
	}
	v.s.requests[r.ID] = *r
	return nil
}

func (v *verificationStore) Expired(_ context.Context, now time.Time) ([]core.VerificationRequest, error) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	var out []core.VerificationRequest
	for _, r := range v.s.requests {
		if r.Status == core.VerificationApproved && r.ExpiresAt != nil && r.ExpiresAt.Before(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// --- core.TargetStore ------------------------------------------------------

type targetStore struct {
	s    *Store
	kind core.TargetKind
}

func (t *targetStore) Kind() core.TargetKind { return t.kind }

func (t *targetStore) Resolve(_ context.Context, id uuid.UUID) (*core.TargetInfo, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if rec, ok := t.s.targets[t.kind][id]; ok {
		info := rec.info
		return &info, nil
	}
	return nil, nil
}

func (t *targetStore) FlagState(_ context.Context, id uuid.UUID, typ core.EntitlementType) (core.FlagState, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	rec, ok := t.s.targets[t.kind][id]
	if !ok {
		return core.FlagState{}, core.ErrTargetNotFound
	}
	return rec.flags[typ], nil
}

func (t *targetStore) SetFlag(_ context.Context, id uuid.UUID, typ core.EntitlementType, on bool, until *time.Time) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	rec, ok := t.s.targets[t.kind][id]
	if !ok {
		return core.ErrTargetNotFound
	}
	rec.flags[typ] = core.FlagState{On: on, Until: until}
	return nil
}

func (t *targetStore) StaleFlags(_ context.Context, now time.Time) ([]core.StaleFlag, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	var out []core.StaleFlag
	for id, rec := range t.s.targets[t.kind] {
		for typ, st := range rec.flags {
			if st.On && st.Until != nil && st.Until.Before(now) {
				out = append(out, core.StaleFlag{Kind: t.kind, TargetID: id, Type: typ, Until: *st.Until})
			}
		}
	}
	return out, nil
}

// --- core.PriceBook --------------------------------------------------------

type priceBook struct{ s *Store }

func (p *priceBook) Price(_ context.Context, typ core.EntitlementType, days int, tier core.AccountTier) (int64, bool, error) {
	p.s.mu.Lock()
	defer p.s.mu.Unlock()
	cents, ok := p.s.prices[priceKey{typ, days, tier}]
	return cents, ok, nil
}
