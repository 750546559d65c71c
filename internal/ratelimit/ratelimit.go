package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"eventboard/internal/utils"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Limiter decides whether one more request for key may proceed.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Evaler is the part of a go-redis client the Redis limiter needs.
type Evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Token bucket kept in a Redis hash. Refill is computed from the elapsed
// milliseconds so every instance sharing the key sees the same bucket.
const tokenBucketScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local burst = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(state[1]) or burst
local last = tonumber(state[2]) or now

local elapsed = math.max(0, now - last)
tokens = math.min(burst, tokens + elapsed * rate / 1000)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call("HSET", key, "tokens", tokens, "ts", now)
redis.call("PEXPIRE", key, ttl)
return allowed
`

type RedisLimiter struct {
	client Evaler
	prefix string
	rps    int
	burst  int
	now    func() time.Time
}

func NewRedisLimiter(client Evaler, rps, burst int) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		prefix: "eventboard:rate_limit:",
		rps:    rps,
		burst:  burst,
		now:    time.Now,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	// Keep the bucket around long enough to refill completely.
	ttl := int64(2000)
	if l.rps > 0 {
		ttl = int64(l.burst)*1000/int64(l.rps) + 1000
	}

	args := []interface{}{l.now().UnixMilli(), l.rps, l.burst, ttl}
	n, err := l.client.Eval(ctx, tokenBucketScript, []string{l.prefix + key}, args...).Int64()
	if err != nil {
		return false, fmt.Errorf("rate limit eval: %w", err)
	}
	return n == 1, nil
}

// LocalLimiter keeps one token bucket per key in process memory. Buckets
// unused for the cache TTL are forgotten and start full again.
type LocalLimiter struct {
	mu       sync.Mutex
	limiters *utils.Cache[*rate.Limiter]
	rps      rate.Limit
	burst    int
}

func NewLocalLimiter(rps, burst, size int, idleTTL time.Duration) (*LocalLimiter, error) {
	cache, err := utils.NewCache[*rate.Limiter](size, idleTTL)
	if err != nil {
		return nil, fmt.Errorf("create limiter cache: %w", err)
	}
	return &LocalLimiter{limiters: cache, rps: rate.Limit(rps), burst: burst}, nil
}

func (l *LocalLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	limiter, ok := l.limiters.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.rps, l.burst)
	}
	// Re-set on every hit so the TTL measures idleness.
	l.limiters.Set(key, limiter)
	return limiter.Allow(), nil
}
