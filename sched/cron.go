// Package sched runs the engine's periodic sweeps on independent cadences.
// Each job has its own timer; the only coordination is a skip-if-running
// guard (in-process, plus an optional shared lock for multi-instance
// deployments). Intervals are configuration, not part of the engine's
// contract.
package sched

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/open-rails/grantkit/core"
)

// Locker guards a named sweep across instances. storage/redis.SweepLock
// implements it; nil means in-process guarding only.
type Locker interface {
	TryAcquire(ctx context.Context, name string) (bool, error)
	Release(ctx context.Context, name string) error
}

// Config holds the sweep cadences. Zero values take the defaults below.
type Config struct {
	PromotionInterval    time.Duration // default 5m
	VerificationInterval time.Duration // default 1h
	OrphanInterval       time.Duration // default 30m
	// RunTimeout bounds one sweep run so a stuck item cannot stall the
	// cadence indefinitely. Default 4m.
	RunTimeout time.Duration

	Lock   Locker
	Logger *logrus.Logger
}

// Runner owns the cron schedule for one process.
type Runner struct {
	cron    *cron.Cron
	svc     *core.Service
	cfg     Config
	log     *logrus.Logger
	running map[string]*atomic.Bool
}

func New(svc *core.Service, cfg Config) *Runner {
	if cfg.PromotionInterval <= 0 {
		cfg.PromotionInterval = 5 * time.Minute
	}
	if cfg.VerificationInterval <= 0 {
		cfg.VerificationInterval = time.Hour
	}
	if cfg.OrphanInterval <= 0 {
		cfg.OrphanInterval = 30 * time.Minute
	}
	if cfg.RunTimeout <= 0 {
		cfg.RunTimeout = 4 * time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.New()
	}
	return &Runner{
		cron: cron.New(),
		svc:  svc,
		cfg:  cfg,
		log:  log,
		running: map[string]*atomic.Bool{
			core.FamilyPromotions:   {},
			core.FamilyVerification: {},
			core.FamilyOrphans:      {},
		},
	}
}

// Start registers the three sweeps and starts the cron loop.
func (r *Runner) Start() error {
	jobs := []struct {
		name     string
		interval time.Duration
		run      func(ctx context.Context) (core.SweepReport, error)
	}{
		{core.FamilyPromotions, r.cfg.PromotionInterval, r.svc.RunPromotionExpirySweep},
		{core.FamilyVerification, r.cfg.VerificationInterval, r.svc.RunVerificationExpirySweep},
		{core.FamilyOrphans, r.cfg.OrphanInterval, r.svc.RunOrphanSweep},
	}
	for _, j := range jobs {
		j := j
		spec := fmt.Sprintf("@every %s", j.interval)
		if _, err := r.cron.AddFunc(spec, r.wrap(j.name, j.run)); err != nil {
			return fmt.Errorf("sched: register %s (%s): %w", j.name, spec, err)
		}
		r.log.WithFields(logrus.Fields{"sweep": j.name, "every": j.interval}).Info("sweep scheduled")
	}
	r.cron.Start()
	return nil
}

// Stop halts scheduling and returns a context that is done once in-flight
// jobs finish.
func (r *Runner) Stop() context.Context {
	return r.cron.Stop()
}

// wrap adds the non-overlap guard and the per-run timeout around a sweep.
func (r *Runner) wrap(name string, run func(ctx context.Context) (core.SweepReport, error)) func() {
	return func() {
		busy := r.running[name]
		if !busy.CompareAndSwap(false, true) {
			r.log.WithField("sweep", name).Warn("previous run still in progress, skipping tick")
			return
		}
		defer busy.Store(false)

		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.RunTimeout)
		defer cancel()

		if r.cfg.Lock != nil {
			ok, err := r.cfg.Lock.TryAcquire(ctx, name)
			if err != nil {
				r.log.WithError(err).WithField("sweep", name).Warn("sweep lock unavailable, running unguarded")
			} else if !ok {
				r.log.WithField("sweep", name).Debug("another instance holds the sweep lock, skipping tick")
				return
			} else {
				defer func() {
					if err := r.cfg.Lock.Release(context.Background(), name); err != nil {
						r.log.WithError(err).WithField("sweep", name).Warn("sweep lock release failed")
					}
				}()
			}
		}

		if _, err := run(ctx); err != nil {
			// Candidate-query failures land here; the next tick retries
			// from scratch.
			r.log.WithError(err).WithField("sweep", name).Error("sweep run failed")
		}
	}
}

// RunOnce executes a single named sweep outside the schedule, honoring the
// same timeout. Used by the CLI's one-shot mode.
func (r *Runner) RunOnce(ctx context.Context, name string) (core.SweepReport, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.RunTimeout)
	defer cancel()
	switch name {
	case core.FamilyPromotions:
		return r.svc.RunPromotionExpirySweep(ctx)
	case core.FamilyVerification:
		return r.svc.RunVerificationExpirySweep(ctx)
	case core.FamilyOrphans:
		return r.svc.RunOrphanSweep(ctx)
	default:
		return core.SweepReport{}, fmt.Errorf("sched: unknown sweep %q", name)
	}
}
