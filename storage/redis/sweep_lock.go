// Package redisstore provides Redis-backed coordination helpers for grantkit.
package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// SweepLock is a SetNX-with-TTL mutex around sweep runs. When a second
// instance holds the lock the tick is skipped; the TTL bounds how long a
// crashed holder can block the cadence.
type SweepLock struct {
	rdb   *redis.Client
	keyNS string
	ttl   time.Duration
}

func NewSweepLock(rdb *redis.Client, keyPrefix string, ttl time.Duration) *SweepLock {
	if keyPrefix == "" {
		keyPrefix = "grantkit:sweep:"
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &SweepLock{rdb: rdb, keyNS: keyPrefix, ttl: ttl}
}

func (l *SweepLock) key(name string) string { return l.keyNS + name }

// TryAcquire returns false when another holder owns the named lock.
// With no client configured it always acquires, degrading to the in-process
// guard alone.
func (l *SweepLock) TryAcquire(ctx context.Context, name string) (bool, error) {
	if l == nil || l.rdb == nil {
		return true, nil
	}
	return l.rdb.SetNX(ctx, l.key(name), time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
}

// Release drops the named lock. Best-effort: if it fails, the TTL cleans up.
func (l *SweepLock) Release(ctx context.Context, name string) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Del(ctx, l.key(name)).Err()
}
