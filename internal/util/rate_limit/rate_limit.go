package rate_limit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
	"golang.org/x/time/rate"
)

// RateLimiter is a token bucket keyed by an arbitrary string (a client IP for
// the error relay). Buckets live in Valkey when a client is supplied so that
// all relay instances share them, otherwise in process memory.
type RateLimiter struct {
	client valkey.Client
	prefix string

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type RateLimitResult struct {
	Allowed       bool      `json:"allowed"`
	Remaining     int       `json:"remaining"`
	ResetTime     time.Time `json:"resetTime"`
	RetryAfterSec int       `json:"retryAfterSec,omitempty"`
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const (
	defaultTimeout    = 5 * time.Second
	defaultKeyPrefix  = "rate_limit:"
	visitorIdleExpiry = 3 * time.Minute
)

// Lua script for token bucket rate limiting
// This script atomically:
// 1. Gets current token count and last refill time
// 2. Calculates tokens to add based on time elapsed
// 3. Checks if request can be allowed
// 4. Updates token count and timestamp
const tokenBucketLuaScript = `
local key = KEYS[1]
local now = tonumber(ARGV[1])
local rps_limit = tonumber(ARGV[2])
local burst_limit = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local current = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(current[1]) or burst_limit
local last_refill = tonumber(current[2]) or now

local elapsed = math.max(0, now - last_refill)
local tokens_to_add = math.floor(elapsed * rps_limit / 1000)
tokens = math.min(burst_limit, tokens + tokens_to_add)
if tokens_to_add > 0 then
    last_refill = now
end

local allowed = 0
local remaining = tokens
if tokens >= 1 then
    allowed = 1
    tokens = tokens - 1
    remaining = tokens
end

redis.call('HMSET', key, 'tokens', tokens, 'last_refill', last_refill)
redis.call('EXPIRE', key, ttl)

local time_to_full = 0
if tokens < burst_limit then
    time_to_full = math.ceil((burst_limit - tokens) * 1000 / rps_limit)
end

return {allowed, remaining, time_to_full}
`

// NewRateLimiter creates a limiter. A nil client selects in-memory buckets.
func NewRateLimiter(client valkey.Client, prefix string) *RateLimiter {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}

	return &RateLimiter{
		client:   client,
		prefix:   prefix,
		visitors: make(map[string]*visitor),
		now:      time.Now,
	}
}

func (r *RateLimiter) CheckRateLimit(key string, rpsLimit, burstLimit int) (*RateLimitResult, error) {
	if rpsLimit <= 0 {
		rpsLimit = 100
	}
	if burstLimit <= 0 {
		burstLimit = max(rpsLimit*5, 500)
	}

	if r.client == nil {
		return r.checkInMemory(key, rpsLimit, burstLimit), nil
	}

	return r.checkInValkey(key, rpsLimit, burstLimit)
}

func (r *RateLimiter) ResetRateLimit(key string) error {
	if r.client == nil {
		r.mu.Lock()
		delete(r.visitors, key)
		r.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	result := r.client.Do(ctx, r.client.B().Del().Key(r.prefix+key).Build())
	return result.Error()
}

func (r *RateLimiter) checkInValkey(key string, rpsLimit, burstLimit int) (*RateLimitResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	now := r.now().UnixMilli()
	ttl := int64(300)

	result := r.client.Do(ctx, r.client.B().Eval().
		Script(tokenBucketLuaScript).
		Numkeys(1).
		Key(r.prefix+key).
		Arg(strconv.FormatInt(now, 10)).
		Arg(strconv.Itoa(rpsLimit)).
		Arg(strconv.Itoa(burstLimit)).
		Arg(strconv.FormatInt(ttl, 10)).
		Build())

	if result.Error() != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", result.Error())
	}

	values, err := result.AsIntSlice()
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate limit result: %w", err)
	}

	if len(values) < 3 {
		return nil, fmt.Errorf("invalid rate limit result: expected 3 values, got %d", len(values))
	}

	allowed := values[0] == 1

	return &RateLimitResult{
		Allowed:       allowed,
		Remaining:     int(values[1]),
		ResetTime:     r.now().Add(time.Duration(values[2]) * time.Millisecond),
		RetryAfterSec: retryAfter(allowed, rpsLimit),
	}, nil
}

func (r *RateLimiter) checkInMemory(key string, rpsLimit, burstLimit int) *RateLimitResult {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictIdle(now)

	v, exists := r.visitors[key]
	if !exists || v.limiter.Burst() != burstLimit || v.limiter.Limit() != rate.Limit(rpsLimit) {
		v = &visitor{limiter: rate.NewLimiter(rate.Limit(rpsLimit), burstLimit)}
		r.visitors[key] = v
	}
	v.lastSeen = now

	allowed := v.limiter.AllowN(now, 1)
	remaining := max(0, int(math.Floor(v.limiter.TokensAt(now))))

	timeToFull := time.Duration(float64(burstLimit-remaining) / float64(rpsLimit) * float64(time.Second))

	return &RateLimitResult{
		Allowed:       allowed,
		Remaining:     remaining,
		ResetTime:     now.Add(timeToFull),
		RetryAfterSec: retryAfter(allowed, rpsLimit),
	}
}

// evictIdle drops buckets that have not been touched for a while so the
// visitor map does not grow with every client IP ever seen.
func (r *RateLimiter) evictIdle(now time.Time) {
	for key, v := range r.visitors {
		if now.Sub(v.lastSeen) > visitorIdleExpiry {
			delete(r.visitors, key)
		}
	}
}

func retryAfter(allowed bool, rpsLimit int) int {
	if allowed {
		return 0
	}

	retryAfterMs := 1000.0 / float64(rpsLimit)
	return max(1, int(math.Ceil(retryAfterMs/1000.0)))
}
