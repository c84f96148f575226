package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable is an exported constant or variable used by the gating engine.
var ErrRedisUnavailable = errors.New("redis unavailable")

// RedisManager persists sessions as JSON blobs under a key prefix, sharing
// one TTL across all sessions. Suitable for multi-worker deployments where
// process memory cannot hold the session set.
type RedisManager struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisManager describes the newredismanager operation and its observable behavior.
//
// NewRedisManager does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewRedisManager(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisManager {
	if prefix == "" {
		prefix = "gs"
	}
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &RedisManager{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (m *RedisManager) key(id string) string {
	return m.prefix + ":" + id
}

// Load describes the load operation and its observable behavior.
//
// Load may return an error when input validation, dependency calls, or security checks fail.
// Load does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *RedisManager) Load(ctx context.Context, id string) (*Session, error) {
	blob, err := m.redis.Get(ctx, m.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s, err := decode(blob)
	if err != nil {
		// Corrupt blobs are dropped rather than surfaced; the caller gets a
		// fresh guest session instead of a 500.
		_ = m.redis.Del(ctx, m.key(id)).Err()
		return nil, ErrNotFound
	}
	return s, nil
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *RedisManager) Save(ctx context.Context, s *Session) error {
	if s == nil {
		return errors.New("nil session")
	}
	if s.Destroyed() {
		return m.Destroy(ctx, s.ID)
	}

	blob, err := encode(s)
	if err != nil {
		return err
	}
	if err := m.redis.Set(ctx, m.key(s.ID), blob, m.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Destroy describes the destroy operation and its observable behavior.
//
// Destroy may return an error when input validation, dependency calls, or security checks fail.
// Destroy does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (m *RedisManager) Destroy(ctx context.Context, id string) error {
	if err := m.redis.Del(ctx, m.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
