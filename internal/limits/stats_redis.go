package limits

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisRecorder persists decision statistics to Redis. Totals accumulate in a
// hash; per-minute buckets and per-identity counters carry a TTL so the
// keyspace stays bounded.
type RedisRecorder struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisRecorder constructs a RedisRecorder.
func NewRedisRecorder(client *redis.Client, prefix string, ttl time.Duration) *RedisRecorder {
	prefix = strings.Trim(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "guard:stats"
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisRecorder{client: client, prefix: prefix, ttl: ttl}
}

// Record implements Recorder with a single pipelined round trip.
func (r *RedisRecorder) Record(ctx context.Context, ev DecisionEvent) error {
	if r == nil || r.client == nil {
		return nil
	}
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	field := "denied"
	if ev.Allowed {
		field = "allowed"
	}

	pipe := r.client.Pipeline()
	pipe.HIncrBy(ctx, r.prefix+":total", field, 1)
	if category := strings.TrimSpace(string(ev.Category)); category != "" {
		pipe.HIncrBy(ctx, r.prefix+":category", category+":"+field, 1)
	}
	bucketKey := r.prefix + ":minute:" + at.UTC().Format(minuteLayout)
	pipe.HIncrBy(ctx, bucketKey, field, 1)
	pipe.Expire(ctx, bucketKey, r.ttl)
	if identity := strings.TrimSpace(ev.Identity); identity != "" && !ev.Allowed {
		identityKey := r.prefix + ":identity:" + identity
		pipe.HIncrBy(ctx, identityKey, field, 1)
		pipe.Expire(ctx, identityKey, r.ttl)
	}
	_, errExec := pipe.Exec(ctx)
	return errExec
}

// breakerDuration is how long the fallback recorder skips Redis after an error.
const breakerDuration = 30 * time.Second

// FallbackRecorder writes to a primary recorder and falls back to a memory
// recorder for breakerDuration after a primary failure, so a Redis outage
// never costs request latency beyond the first failed write.
type FallbackRecorder struct {
	primary  Recorder
	fallback *MemoryRecorder
	nowFn    func() time.Time

	mu           sync.Mutex
	breakerUntil time.Time
}

// NewFallbackRecorder constructs a FallbackRecorder. nowFn defaults to
// time.Now when nil.
func NewFallbackRecorder(primary Recorder, fallback *MemoryRecorder, nowFn func() time.Time) *FallbackRecorder {
	if fallback == nil {
		fallback = NewMemoryRecorder()
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	return &FallbackRecorder{primary: primary, fallback: fallback, nowFn: nowFn}
}

// Memory returns the in-memory recorder used for fallback and local reads.
func (f *FallbackRecorder) Memory() *MemoryRecorder { return f.fallback }

// Record implements Recorder. The memory recorder always sees the event so
// local stats stay complete across breaker windows.
func (f *FallbackRecorder) Record(ctx context.Context, ev DecisionEvent) error {
	_ = f.fallback.Record(ctx, ev)
	if f.primary == nil {
		return nil
	}
	now := f.nowFn()
	if f.breakerActive(now) {
		return nil
	}
	if errRecord := f.primary.Record(ctx, ev); errRecord != nil {
		f.tripBreaker(errRecord, now)
	}
	return nil
}

func (f *FallbackRecorder) breakerActive(now time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.breakerUntil.IsZero() {
		return false
	}
	if now.Before(f.breakerUntil) {
		return true
	}
	f.breakerUntil = time.Time{}
	return false
}

func (f *FallbackRecorder) tripBreaker(err error, now time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.breakerUntil.IsZero() && now.Before(f.breakerUntil) {
		return
	}
	f.breakerUntil = now.Add(breakerDuration)
	log.WithError(err).Warn("stats recorder: redis unavailable, keeping memory stats only")
}
