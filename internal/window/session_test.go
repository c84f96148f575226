package window

import (
	"context"
	"testing"
	"time"

	"github.com/MrEthical07/goGate/session"
)

func TestSessionStoreWindowSemantics(t *testing.T) {
	clock := newFakeClock()
	sess := session.New()
	store := ForSession(sess, clock.Now)
	ctx := context.Background()

	const max = 2
	decay := 20 * time.Second

	for i := 1; i <= max; i++ {
		res, err := store.Admit(ctx, "form", max, decay)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !res.Allowed || res.Remaining != max-i {
			t.Fatalf("admit %d: allowed=%v remaining=%d", i, res.Allowed, res.Remaining)
		}
	}

	if res, _ := store.Admit(ctx, "form", max, decay); res.Allowed {
		t.Fatal("over-budget request admitted")
	}

	clock.Advance(21 * time.Second)

	if res, _ := store.Admit(ctx, "form", max, decay); !res.Allowed {
		t.Fatal("fresh window should admit")
	}
}

func TestSessionStoreIsolatedPerSession(t *testing.T) {
	clock := newFakeClock()
	ctx := context.Background()

	a := ForSession(session.New(), clock.Now)
	b := ForSession(session.New(), clock.Now)

	if res, _ := a.Admit(ctx, "form", 1, time.Minute); !res.Allowed {
		t.Fatal("first session should admit")
	}
	if res, _ := a.Admit(ctx, "form", 1, time.Minute); res.Allowed {
		t.Fatal("first session should be exhausted")
	}
	if res, _ := b.Admit(ctx, "form", 1, time.Minute); !res.Allowed {
		t.Fatal("sessions must not share a budget")
	}
}

func TestSessionStoreNilSession(t *testing.T) {
	store := ForSession(nil, nil)

	if _, err := store.Admit(context.Background(), "form", 1, time.Minute); err == nil {
		t.Fatal("nil session must report unavailable")
	}
	if err := store.Clear(context.Background(), "form"); err != nil {
		t.Fatalf("clear on nil session is a no-op: %v", err)
	}
}

func TestSessionStoreClear(t *testing.T) {
	clock := newFakeClock()
	store := ForSession(session.New(), clock.Now)
	ctx := context.Background()

	if _, err := store.Admit(ctx, "form", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx, "form"); err != nil {
		t.Fatal(err)
	}
	if res, _ := store.Admit(ctx, "form", 1, time.Minute); !res.Allowed {
		t.Fatal("cleared key should admit again")
	}
}
