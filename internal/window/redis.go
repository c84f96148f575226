package window

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// admitScript applies the fixed-window step server-side so the
// read-check-increment sequence is atomic per key across all workers.
// Returns {allowed, remaining, reset_at}.
const admitScript = `
local max = tonumber(ARGV[1])
local decay = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local fields = redis.call("HMGET", KEYS[1], "attempts", "reset_at")
local attempts = tonumber(fields[1]) or 0
local reset_at = tonumber(fields[2]) or 0

if reset_at <= now then
  attempts = 0
  reset_at = now + decay
end

if attempts >= max then
  redis.call("HSET", KEYS[1], "attempts", attempts, "reset_at", reset_at)
  redis.call("EXPIREAT", KEYS[1], reset_at)
  return {0, 0, reset_at}
end

attempts = attempts + 1
redis.call("HSET", KEYS[1], "attempts", attempts, "reset_at", reset_at)
redis.call("EXPIREAT", KEYS[1], reset_at)
return {1, max - attempts, reset_at}
`

var admitLua = redis.NewScript(admitScript)

// RedisStore keeps window state in Redis hashes, one per key, expiring at
// the window boundary. The durable choice for multi-host deployments.
type RedisStore struct {
	redis redis.UniversalClient
	now   func() time.Time
}

// NewRedisStore describes the newredisstore operation and its observable behavior.
//
// NewRedisStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisStore(client redis.UniversalClient, now func() time.Time) *RedisStore {
	if now == nil {
		now = time.Now
	}
	return &RedisStore{redis: client, now: now}
}

// Admit describes the admit operation and its observable behavior.
//
// Admit may return an error when input validation, dependency calls, or security checks fail.
// Admit does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Admit(ctx context.Context, key string, maxAttempts int, decay time.Duration) (Result, error) {
	raw, err := admitLua.Run(ctx, s.redis, []string{key},
		maxAttempts, int64(decay/time.Second), s.now().Unix()).Result()
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 3 {
		return Result{}, fmt.Errorf("%w: unexpected script reply %T", ErrCorrupt, raw)
	}

	allowed, aok := reply[0].(int64)
	remaining, rok := reply[1].(int64)
	resetAt, tok := reply[2].(int64)
	if !aok || !rok || !tok {
		return Result{}, fmt.Errorf("%w: unexpected script reply shape", ErrCorrupt)
	}

	return Result{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetAt:   time.Unix(resetAt, 0),
	}, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
