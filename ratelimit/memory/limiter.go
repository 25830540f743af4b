package memorylimiter

import (
	"fmt"
	"sync"
	"time"
)

// Limit defines max count per window for one bucket.
type Limit struct {
	Limit  int
	Window time.Duration
}

// Limiter is an in-memory sliding-window rate limiter for the purchase and
// review endpoints. Single-node only; use the Redis limiter when more than
// one instance serves traffic.
type Limiter struct {
	mu      sync.Mutex
	limits  map[string]Limit
	buckets map[string][]int64 // unix ms timestamps, newest last
}

// New constructs a limiter with the provided per-bucket limits. A "default"
// bucket, when present, covers buckets without an explicit limit.
func New(limits map[string]Limit) *Limiter {
	if limits == nil {
		limits = map[string]Limit{}
	}
	return &Limiter{
		limits:  limits,
		buckets: make(map[string][]int64),
	}
}

func (l *Limiter) limit(bucket string) Limit {
	if v, ok := l.limits[bucket]; ok {
		return v
	}
	if v, ok := l.limits["default"]; ok {
		return v
	}
	return Limit{Limit: 30, Window: time.Minute}
}

// AllowNamed implements the ginutil.RateLimiter interface. Expired entries
// are pruned on each call and empty buckets dropped so memory stays bounded.
func (l *Limiter) AllowNamed(bucket, key string) (bool, error) {
	if l == nil {
		return true, nil
	}
	if bucket == "" || key == "" {
		return false, fmt.Errorf("bucket and key required")
	}

	lim := l.limit(bucket)
	nowMs := time.Now().UnixMilli()
	windowStart := nowMs - lim.Window.Milliseconds()
	k := key + ":" + bucket

	l.mu.Lock()
	defer l.mu.Unlock()

	ts := l.buckets[k]
	keep := 0
	for keep < len(ts) && ts[keep] < windowStart {
		keep++
	}
	ts = ts[keep:]

	if len(ts) >= lim.Limit {
		// Deny without recording the attempt.
		if len(ts) == 0 {
			delete(l.buckets, k)
		} else {
			l.buckets[k] = ts
		}
		return false, nil
	}

	l.buckets[k] = append(ts, nowMs)
	return true, nil
}
