// Package core implements the entitlement lifecycle engine: applying
// time-bounded grants (ad promotions, identity verification), projecting
// them into denormalized target flags, and expiring them through periodic
// sweeps that tolerate per-item failure.
package core

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// Service is the engine facade. All operations are safe for concurrent use
// provided the underlying stores are.
type Service struct {
	db            DB
	grants        GrantStore
	verifications VerificationStore
	targets       map[TargetKind]TargetStore
	prices        PriceBook

	notifier Notifier
	log      *logrus.Logger
	metrics  *Metrics
	now      func() time.Time
}

// Config wires a Service. DB, Grants, Verifications, Prices and at least one
// TargetStore are required; the rest default to no-ops.
type Config struct {
	DB            DB
	Grants        GrantStore
	Verifications VerificationStore
	Targets       []TargetStore
	Prices        PriceBook

	Notifier Notifier
	Logger   *logrus.Logger
	Metrics  *Metrics

	// Now overrides the clock, for tests.
	Now func() time.Time
}

func New(cfg Config) (*Service, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("core: DB is required")
	}
	if cfg.Grants == nil {
		return nil, fmt.Errorf("core: GrantStore is required")
	}
	if cfg.Verifications == nil {
		return nil, fmt.Errorf("core: VerificationStore is required")
	}
	if cfg.Prices == nil {
		return nil, fmt.Errorf("core: PriceBook is required")
	}
	if len(cfg.Targets) == 0 {
		return nil, fmt.Errorf("core: at least one TargetStore is required")
	}
	targets := make(map[TargetKind]TargetStore, len(cfg.Targets))
	for _, ts := range cfg.Targets {
		if _, dup := targets[ts.Kind()]; dup {
			return nil, fmt.Errorf("core: duplicate target store for kind %q", ts.Kind())
		}
		targets[ts.Kind()] = ts
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{
		db:            cfg.DB,
		grants:        cfg.Grants,
		verifications: cfg.Verifications,
		targets:       targets,
		prices:        cfg.Prices,
		notifier:      notifier,
		log:           log,
		metrics:       cfg.Metrics,
		now:           now,
	}, nil
}

func (s *Service) target(kind TargetKind) (TargetStore, error) {
	ts, ok := s.targets[kind]
	if !ok {
		return nil, fmt.Errorf("core: no target store registered for kind %q", kind)
	}
	return ts, nil
}

// notify delivers best-effort. Dispatch failures are logged and never affect
// the state transition that triggered them.
func (s *Service) notify(ctx context.Context, n Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.metrics.NotifyFailed()
		s.log.WithError(err).WithFields(logrus.Fields{
			"event":   n.Event,
			"type":    n.Type,
			"user_id": n.UserID,
		}).Warn("notification dispatch failed")
	}
}
