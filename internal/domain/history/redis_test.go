package history

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
)

func newTestRedis(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, Store) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedis(Config{
		TTL: ttl,
		Redis: &RedisConfig{
			Addr: mr.Addr(),
		},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return mr, store
}

func TestRedisStoreLifecycle(t *testing.T) {
	_, store := newTestRedis(t, time.Hour)
	exerciseLifecycle(t, store)
}

func TestRedisStoreTTL(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestRedis(t, time.Minute)

	if err := store.Save(ctx, Record{ID: "short", Kind: KindMedia}); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if ttl := mr.TTL(defaultRedisPrefix + "record:short"); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected key ttl %v", ttl)
	}

	mr.FastForward(2 * time.Minute)

	if _, err := store.Get(ctx, "short"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired record, got %v", err)
	}
	list, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected empty list, got %v", ids(list))
	}

	if err := store.CleanupExpired(ctx); err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"] != int64(0) {
		t.Fatalf("expected pruned index, got %v", stats["total"])
	}
}

func TestRedisStoreRequiresAddr(t *testing.T) {
	if _, err := NewRedis(Config{}); err == nil {
		t.Fatal("expected error without redis config")
	}
	if _, err := NewRedis(Config{Redis: &RedisConfig{}}); err == nil {
		t.Fatal("expected error without address")
	}
}

func TestRedisStoreListSkipsPastExpiredPages(t *testing.T) {
	ctx := context.Background()
	mr, store := newTestRedis(t, time.Hour)

	base := time.Now().Add(-time.Minute)
	for i := 0; i < 10; i++ {
		rec := Record{ID: "r" + strconv.Itoa(i), Kind: KindJob, CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := store.Save(ctx, rec); err != nil {
			t.Fatalf("Save error: %v", err)
		}
	}
	// the six newest record keys vanish while the index still lists them
	for i := 4; i < 10; i++ {
		mr.Del(defaultRedisPrefix + "record:r" + strconv.Itoa(i))
	}

	list, err := store.List(ctx, 2)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if got := ids(list); len(got) != 2 || got[0] != "r3" || got[1] != "r2" {
		t.Fatalf("expected [r3 r2], got %v", got)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"] != int64(4) {
		t.Fatalf("expected stale ids pruned to 4, got %v", stats["total"])
	}

	list, err = store.List(ctx, 50)
	if err != nil {
		t.Fatalf("List error: %v", err)
	}
	if len(list) != 4 {
		t.Fatalf("expected the 4 live records, got %v", ids(list))
	}
}
