package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// tokenBucketScript refills, then takes one token. State lives in a hash with
// the token count and the last refill time in milliseconds.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill_tokens = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl_seconds = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
local tokens = tonumber(state[1])
local last_refill = tonumber(state[2])

if tokens == nil or last_refill == nil then
    tokens = capacity
    last_refill = now_ms
end

if interval_ms > 0 and refill_tokens > 0 then
    local elapsed = math.max(0, now_ms - last_refill)
    local intervals = math.floor(elapsed / interval_ms)
    if intervals > 0 then
        tokens = math.min(capacity, tokens + (intervals * refill_tokens))
        last_refill = last_refill + (intervals * interval_ms)
    end
end

local allowed = 0
local retry_after_ms = 0
if tokens > 0 then
    allowed = 1
    tokens = tokens - 1
else
    retry_after_ms = math.max(0, interval_ms - (now_ms - last_refill))
end

redis.call('HSET', key, 'tokens', tokens, 'last_refill_ms', last_refill)
redis.call('EXPIRE', key, ttl_seconds)

return { allowed, tokens, retry_after_ms }
`)

// RateResult is the outcome of taking one token.
type RateResult struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// TokenBucket is a distributed token-bucket limiter stored in Redis.
type TokenBucket struct {
	client   *redis.Client
	prefix   string
	capacity int
	refill   int
	interval time.Duration
	ttl      time.Duration
}

// NewTokenBucket creates a limiter holding capacity tokens, refilled by
// refill tokens every interval.
func NewTokenBucket(client *redis.Client, prefix string, capacity, refill int, interval time.Duration) *TokenBucket {
	ttl := interval * time.Duration(capacity) * 2
	if ttl < time.Minute {
		ttl = time.Minute
	}
	return &TokenBucket{client: client, prefix: prefix, capacity: capacity, refill: refill, interval: interval, ttl: ttl}
}

// Capacity is the bucket size.
func (b *TokenBucket) Capacity() int {
	return b.capacity
}

// Take consumes one token from the bucket identified by key.
func (b *TokenBucket) Take(ctx context.Context, key string) (RateResult, error) {
	vals, err := tokenBucketScript.Run(ctx, b.client, []string{b.prefix + ":" + key},
		time.Now().UnixMilli(),
		b.capacity,
		b.refill,
		b.interval.Milliseconds(),
		int64(b.ttl/time.Second),
	).Int64Slice()
	if err != nil {
		return RateResult{}, fmt.Errorf("rate limit script: %w", err)
	}
	if len(vals) != 3 {
		return RateResult{}, fmt.Errorf("rate limit script returned %d values", len(vals))
	}
	return RateResult{
		Allowed:    vals[0] == 1,
		Remaining:  vals[1],
		RetryAfter: time.Duration(vals[2]) * time.Millisecond,
	}, nil
}

// RetryAfterSeconds rounds up to whole seconds for the Retry-After header.
func (r RateResult) RetryAfterSeconds() string {
	secs := int64((r.RetryAfter + time.Second - 1) / time.Second)
	return strconv.FormatInt(secs, 10)
}
