package window

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T, clock *fakeClock) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	mr.SetTime(clock.Now())

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, clock.Now)
}

func TestRedisStoreWindowSemantics(t *testing.T) {
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)
	ctx := context.Background()

	const max = 4
	decay := 45 * time.Second

	for i := 1; i <= max; i++ {
		res, err := store.Admit(ctx, "rl:k", max, decay)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !res.Allowed || res.Remaining != max-i {
			t.Fatalf("admit %d: allowed=%v remaining=%d", i, res.Allowed, res.Remaining)
		}
	}

	res, err := store.Admit(ctx, "rl:k", max, decay)
	if err != nil {
		t.Fatalf("admit over limit: %v", err)
	}
	if res.Allowed || res.Remaining != 0 {
		t.Fatalf("over-budget: allowed=%v remaining=%d", res.Allowed, res.Remaining)
	}
	if want := clock.Now().Unix() + 45; res.ResetAt.Unix() != want {
		t.Fatalf("reset at = %d, want %d", res.ResetAt.Unix(), want)
	}

	// The script must not count rejected attempts.
	again, _ := store.Admit(ctx, "rl:k", max, decay)
	if again.Allowed || again.ResetAt != res.ResetAt {
		t.Fatal("rejection advanced the window")
	}

	clock.Advance(46 * time.Second)

	res, err = store.Admit(ctx, "rl:k", max, decay)
	if err != nil {
		t.Fatalf("admit after reset: %v", err)
	}
	if !res.Allowed || res.Remaining != max-1 {
		t.Fatalf("fresh window: allowed=%v remaining=%d", res.Allowed, res.Remaining)
	}
}

func TestRedisStoreKeysAreIndependent(t *testing.T) {
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)
	ctx := context.Background()

	if res, _ := store.Admit(ctx, "rl:a", 1, time.Minute); !res.Allowed {
		t.Fatal("first key should admit")
	}
	if res, _ := store.Admit(ctx, "rl:a", 1, time.Minute); res.Allowed {
		t.Fatal("first key should be exhausted")
	}
	if res, _ := store.Admit(ctx, "rl:b", 1, time.Minute); !res.Allowed {
		t.Fatal("second key must not share the first key's budget")
	}
}

func TestRedisStoreClear(t *testing.T) {
	clock := newFakeClock()
	store := newTestRedisStore(t, clock)
	ctx := context.Background()

	if _, err := store.Admit(ctx, "rl:k", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx, "rl:k"); err != nil {
		t.Fatal(err)
	}
	if res, _ := store.Admit(ctx, "rl:k", 1, time.Minute); !res.Allowed {
		t.Fatal("cleared key should admit again")
	}
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := NewRedisStore(client, nil)

	mr.Close()

	if _, err := store.Admit(context.Background(), "rl:k", 1, time.Minute); err == nil {
		t.Fatal("expected unavailable error after server shutdown")
	}
}
