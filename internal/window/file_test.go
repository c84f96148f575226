package window

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"
)

func newTestFileStore(t *testing.T, clock *fakeClock) *FileStore {
	t.Helper()

	store, err := NewFileStore(t.TempDir(), clock.Now)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store
}

func TestFileStoreWindowSemantics(t *testing.T) {
	clock := newFakeClock()
	store := newTestFileStore(t, clock)
	ctx := context.Background()

	const max = 3
	decay := 30 * time.Second

	for i := 1; i <= max; i++ {
		res, err := store.Admit(ctx, "abc123", max, decay)
		if err != nil {
			t.Fatalf("admit %d: %v", i, err)
		}
		if !res.Allowed || res.Remaining != max-i {
			t.Fatalf("admit %d: allowed=%v remaining=%d", i, res.Allowed, res.Remaining)
		}
	}

	if res, _ := store.Admit(ctx, "abc123", max, decay); res.Allowed {
		t.Fatal("over-budget request admitted")
	}

	clock.Advance(31 * time.Second)

	if res, _ := store.Admit(ctx, "abc123", max, decay); !res.Allowed {
		t.Fatal("fresh window should admit")
	}
}

func TestFileStorePersistsOneRecordPerKey(t *testing.T) {
	clock := newFakeClock()
	store := newTestFileStore(t, clock)
	ctx := context.Background()

	if _, err := store.Admit(ctx, "deadbeef", 5, time.Minute); err != nil {
		t.Fatal(err)
	}

	blob, err := os.ReadFile(filepath.Join(store.Dir(), "deadbeef.json"))
	if err != nil {
		t.Fatalf("record file: %v", err)
	}
	if string(blob) == "" {
		t.Fatal("empty record")
	}
}

func TestFileStoreCorruptRecordTreatedAsFresh(t *testing.T) {
	clock := newFakeClock()
	store := newTestFileStore(t, clock)
	ctx := context.Background()

	path := filepath.Join(store.Dir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	res, err := store.Admit(ctx, "bad", 2, time.Minute)
	if err != nil {
		t.Fatalf("corrupt record should not fail admission: %v", err)
	}
	if !res.Allowed || res.Remaining != 1 {
		t.Fatalf("corrupt record should reset the window: %+v", res)
	}
}

func TestFileStoreClearRemovesRecord(t *testing.T) {
	clock := newFakeClock()
	store := newTestFileStore(t, clock)
	ctx := context.Background()

	if _, err := store.Admit(ctx, "k", 1, time.Minute); err != nil {
		t.Fatal(err)
	}
	if res, _ := store.Admit(ctx, "k", 1, time.Minute); res.Allowed {
		t.Fatal("expected rejection")
	}

	if err := store.Clear(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if err := store.Clear(ctx, "k"); err != nil {
		t.Fatalf("clearing a missing key must be idempotent: %v", err)
	}

	if res, _ := store.Admit(ctx, "k", 1, time.Minute); !res.Allowed {
		t.Fatal("cleared key should admit")
	}
}

func TestFileStoreConcurrentAdmitsSerialized(t *testing.T) {
	clock := newFakeClock()
	store := newTestFileStore(t, clock)
	ctx := context.Background()

	const max = 64
	const workers = 32

	results := make(chan int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := store.Admit(ctx, "shared", max, time.Minute)
			if err != nil || !res.Allowed {
				results <- -1
				return
			}
			results <- res.Remaining
		}()
	}
	wg.Wait()
	close(results)

	seen := make([]int, 0, workers)
	for r := range results {
		if r < 0 {
			t.Fatal("worker rejected or errored below the budget")
		}
		seen = append(seen, r)
	}

	sort.Ints(seen)
	for i, r := range seen {
		if want := max - workers + i; r != want {
			t.Fatalf("flock failed to serialize increments: got %v", seen)
		}
	}
}
