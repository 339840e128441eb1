package cron

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type memoryStore struct {
	values map[string]string
}

func (m *memoryStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = value.(string)
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, key string) (string, error) {
	v, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestRedisLockIsExclusive(t *testing.T) {
	store := &memoryStore{values: map[string]string{}}
	ctx := context.Background()
	first, err := NewRedisLock(store, "lock:cron", 0)
	if err != nil {
		t.Fatalf("NewRedisLock: %v", err)
	}
	second, _ := NewRedisLock(store, "lock:cron", time.Minute)

	if ok, _ := first.Acquire(ctx); !ok {
		t.Fatal("first acquire should succeed")
	}
	if ok, _ := second.Acquire(ctx); ok {
		t.Fatal("second acquire should fail while held")
	}
	if err := second.Release(ctx); err != nil {
		t.Fatalf("release by non-owner: %v", err)
	}
	if _, held := store.values["lock:cron"]; !held {
		t.Fatal("non-owner release must not drop the lock")
	}
	if err := first.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if ok, _ := second.Acquire(ctx); !ok {
		t.Fatal("acquire after release should succeed")
	}
}

func TestNewRedisLockValidates(t *testing.T) {
	if _, err := NewRedisLock(nil, "k", 0); err == nil {
		t.Fatal("expected error for nil client")
	}
	if _, err := NewRedisLock(&memoryStore{}, "", 0); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestCycleLockKeyIsOrderIndependent(t *testing.T) {
	a := CycleLockKey([]string{"trigger-evaluation", "propensity-refresh"})
	b := CycleLockKey([]string{"propensity-refresh", "trigger-evaluation"})
	if a != b {
		t.Fatalf("expected equal keys, got %q and %q", a, b)
	}
	if a != "cycle:propensity-refresh,trigger-evaluation" {
		t.Fatalf("unexpected key %q", a)
	}
	if CycleLockKey([]string{"propensity-refresh"}) == a {
		t.Fatal("different job sets must not share a lock")
	}
}

func TestLockTTLForStaysBelowInterval(t *testing.T) {
	tests := []struct {
		interval time.Duration
		want     time.Duration
	}{
		{24 * time.Hour, 21*time.Hour + 36*time.Minute},
		{time.Hour, 54 * time.Minute},
		{30 * time.Second, time.Minute},
		{0, defaultLockTTL},
	}
	for _, tt := range tests {
		if got := LockTTLFor(tt.interval); got != tt.want {
			t.Fatalf("interval %s: expected %s got %s", tt.interval, tt.want, got)
		}
	}
}
