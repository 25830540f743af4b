package sched

import (
	"context"
	"io"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/open-rails/grantkit/core"
)

func quietConfig(cfg Config) Config {
	log := logrus.New()
	log.SetOutput(io.Discard)
	cfg.Logger = log
	return cfg
}

func TestWrapSkipsOverlappingRuns(t *testing.T) {
	r := New(nil, quietConfig(Config{}))

	var runs atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	job := r.wrap(core.FamilyPromotions, func(ctx context.Context) (core.SweepReport, error) {
		runs.Add(1)
		close(entered)
		<-release
		return core.SweepReport{}, nil
	})

	done := make(chan struct{})
	go func() {
		job()
		close(done)
	}()
	<-entered

	// A tick while the first run is in flight must not start a second run.
	job()
	if got := runs.Load(); got != 1 {
		t.Fatalf("expected the overlapping tick skipped, got %d runs", got)
	}

	close(release)
	<-done

	// Quiescent again: the next tick runs.
	r.wrap(core.FamilyPromotions, func(ctx context.Context) (core.SweepReport, error) {
		runs.Add(1)
		return core.SweepReport{}, nil
	})()
	if got := runs.Load(); got != 2 {
		t.Fatalf("expected the follow-up tick to run, got %d runs", got)
	}
}

type fakeLock struct {
	grant    bool
	acquired atomic.Int32
	released atomic.Int32
}

func (f *fakeLock) TryAcquire(ctx context.Context, name string) (bool, error) {
	f.acquired.Add(1)
	return f.grant, nil
}

func (f *fakeLock) Release(ctx context.Context, name string) error {
	f.released.Add(1)
	return nil
}

func TestWrapHonorsSharedLock(t *testing.T) {
	lock := &fakeLock{grant: false}
	r := New(nil, quietConfig(Config{Lock: lock}))

	var runs atomic.Int32
	r.wrap(core.FamilyOrphans, func(ctx context.Context) (core.SweepReport, error) {
		runs.Add(1)
		return core.SweepReport{}, nil
	})()
	if runs.Load() != 0 {
		t.Fatal("a held shared lock must skip the tick")
	}

	lock.grant = true
	r.wrap(core.FamilyOrphans, func(ctx context.Context) (core.SweepReport, error) {
		runs.Add(1)
		return core.SweepReport{}, nil
	})()
	if runs.Load() != 1 {
		t.Fatal("an acquired shared lock must run the sweep")
	}
	if lock.released.Load() != 1 {
		t.Fatalf("expected one release, got %d", lock.released.Load())
	}
}

func TestRunOnceUnknownName(t *testing.T) {
	r := New(nil, quietConfig(Config{}))
	if _, err := r.RunOnce(context.Background(), "nonsense"); err == nil {
		t.Fatal("expected an error for an unknown sweep name")
	}
}
