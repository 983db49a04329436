package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// WriteRoute names a rate-limited write endpoint. Every route keeps its own
// bucket per client, so creating users never spends the exercise budget.
type WriteRoute string

// Write routes.
const (
	RouteCreateUser  WriteRoute = "create_user"
	RouteLogExercise WriteRoute = "log_exercise"
)

const writeLimitPrefix = "writes:"

// ErrInvalidBudget is returned for a budget with a non-positive rate or burst.
var ErrInvalidBudget = errors.New("rate limit budget must be positive")

// Budget is a token bucket: Burst writes at once, refilled at Rate per second.
type Budget struct {
	Rate  int
	Burst int
}

func (b Budget) validate() error {
	if b.Rate <= 0 || b.Burst <= 0 {
		return fmt.Errorf("%w: rate=%d burst=%d", ErrInvalidBudget, b.Rate, b.Burst)
	}
	return nil
}

// idleTTL is how long an untouched bucket is kept: the time it takes to
// refill from empty, never less than a second. After that it is full anyway.
func (b Budget) idleTTL() time.Duration {
	secs := (b.Burst + b.Rate - 1) / b.Rate
	if secs < 1 {
		secs = 1
	}
	return time.Duration(secs) * time.Second
}

// Decision is the outcome of one write admission check.
type Decision struct {
	Allowed    bool
	Remaining  int64
	RetryAfter time.Duration
}

// writeBucketScript refills and spends one token atomically. Time is in
// milliseconds so sub-second rates produce a usable retry hint.
var writeBucketScript = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1]) or burst
local ts = tonumber(state[2]) or now_ms

tokens = math.min(burst, tokens + math.max(0, now_ms - ts) * rate / 1000)

local allowed = 0
local wait_ms = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
else
	wait_ms = math.ceil((1 - tokens) * 1000 / rate)
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now_ms)
redis.call('PEXPIRE', key, ttl_ms)

return {allowed, wait_ms, math.floor(tokens)}
`)

// AllowWrite spends one token from the client's bucket for route.
// The client IP is hashed before it reaches Redis.
func (c *Cache) AllowWrite(ctx context.Context, route WriteRoute, ip string, budget Budget) (*Decision, error) {
	if err := budget.validate(); err != nil {
		return nil, err
	}

	res, err := writeBucketScript.Run(ctx, c.client,
		[]string{writeKey(route, ip)},
		budget.Rate, budget.Burst, time.Now().UnixMilli(), budget.idleTTL().Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", route, err)
	}

	return decisionFromScript(res)
}

func decisionFromScript(res []int64) (*Decision, error) {
	if len(res) != 3 {
		return nil, fmt.Errorf("rate limit script returned %d values", len(res))
	}
	return &Decision{
		Allowed:    res[0] == 1,
		RetryAfter: time.Duration(res[1]) * time.Millisecond,
		Remaining:  res[2],
	}, nil
}

func writeKey(route WriteRoute, ip string) string {
	return writeLimitPrefix + string(route) + ":" + hashIP(ip)
}

// hashIP returns the first 8 bytes of the IP's SHA-256 as hex.
func hashIP(ip string) string {
	hash := sha256.Sum256([]byte(ip))
	return hex.EncodeToString(hash[:8])
}
