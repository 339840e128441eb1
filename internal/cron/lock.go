package cron

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL = 55 * time.Minute
	minLockTTL     = time.Minute
)

// Lock keeps two worker replicas from scoring the same cycle.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// redisStore defines the operations used by RedisLock.
type redisStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisLock implements Lock using Redis SETNX + TTL.
type RedisLock struct {
	client redisStore
	key    string
	ttl    time.Duration
	owner  string
}

// CycleLockKey names the lock guarding one cycle of the given jobs. Workers
// running different job sets hold different locks.
func CycleLockKey(jobs []string) string {
	names := append([]string(nil), jobs...)
	sort.Strings(names)
	return "cycle:" + strings.Join(names, ",")
}

// LockTTLFor keeps a cycle lock shorter than the run interval, so a holder
// that dies mid-cycle cannot block the next tick.
func LockTTLFor(interval time.Duration) time.Duration {
	if interval <= 0 {
		return defaultLockTTL
	}
	ttl := interval - interval/10
	if ttl < minLockTTL {
		ttl = minLockTTL
	}
	return ttl
}

// NewRedisLock constructs a Redis-backed lock. A non-positive ttl falls
// back to the default.
func NewRedisLock(client redisStore, key string, ttl time.Duration) (*RedisLock, error) {
	if client == nil {
		return nil, errors.New("redis client required for lock")
	}
	if key == "" {
		return nil, errors.New("lock key is required")
	}
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl}, nil
}

// Key is the Redis key the lock is held under.
func (l *RedisLock) Key() string { return l.key }

// TTL is how long an acquired lock lives without a release.
func (l *RedisLock) TTL() time.Duration { return l.ttl }

// Acquire tries to own the lock for the configured TTL.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	owner := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("setnx: %w", err)
	}
	if ok {
		l.owner = owner
	}
	return ok, nil
}

// Release frees the lock only if the owner value still matches.
func (l *RedisLock) Release(ctx context.Context) error {
	if l.owner == "" {
		return nil
	}
	value, err := l.client.Get(ctx, l.key)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("read lock owner: %w", err)
	}
	if value != l.owner {
		return nil
	}
	if err := l.client.Del(ctx, l.key); err != nil {
		return fmt.Errorf("delete lock: %w", err)
	}
	l.owner = ""
	return nil
}
