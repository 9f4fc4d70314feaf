package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type fakeSource struct {
	bundles []Bundle
	err     error
	calls   int
}

func (f *fakeSource) ListBundles(ctx context.Context) ([]Bundle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.bundles, nil
}

func testCache(source BundleSource, ttl time.Duration) *Cache {
	return NewCache(source, testBuilder(Options{}), ttl, zerolog.Nop())
}

func TestCacheServesWithinTTL(t *testing.T) {
	src := &fakeSource{bundles: []Bundle{bundle(1, 10, line("pot", 10))}}
	cache := testCache(src, time.Minute)

	first := cache.Get(context.Background(), false)
	second := cache.Get(context.Background(), false)

	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
	if first != second {
		t.Fatal("second get should serve the memoized snapshot")
	}
}

func TestCacheForceRefreshBypassesTTL(t *testing.T) {
	src := &fakeSource{bundles: []Bundle{bundle(1, 10, line("pot", 10))}}
	cache := testCache(src, time.Minute)

	cache.Get(context.Background(), false)
	cache.Get(context.Background(), true)

	if src.calls != 2 {
		t.Fatalf("source calls = %d, want 2", src.calls)
	}
}

func TestCacheRebuildsAfterTTL(t *testing.T) {
	src := &fakeSource{bundles: []Bundle{bundle(1, 10, line("pot", 10))}}
	cache := testCache(src, time.Millisecond)

	cache.Get(context.Background(), false)
	time.Sleep(5 * time.Millisecond)
	cache.Get(context.Background(), false)

	if src.calls != 2 {
		t.Fatalf("source calls = %d, want 2", src.calls)
	}
}

func TestCacheServesStaleOnFailure(t *testing.T) {
	src := &fakeSource{bundles: []Bundle{bundle(1, 10, line("pot", 10))}}
	cache := testCache(src, time.Minute)

	first := cache.Get(context.Background(), false)

	src.err = errors.New("repository unavailable")
	second := cache.Get(context.Background(), true)

	if second != first {
		t.Fatal("failure should degrade to the stale snapshot")
	}
	if _, ok := second.Model.Price("pot"); !ok {
		t.Fatal("stale snapshot should keep its prices")
	}
}

func TestCacheEmptyModelWhenNeverBuilt(t *testing.T) {
	src := &fakeSource{err: errors.New("repository unavailable")}
	cache := testCache(src, time.Minute)

	snap := cache.Get(context.Background(), false)
	if len(snap.Model.Estimates) != 0 {
		t.Fatalf("estimates = %d, want 0", len(snap.Model.Estimates))
	}

	// The empty snapshot is not cached; recovery rebuilds immediately.
	src.err = nil
	src.bundles = []Bundle{bundle(1, 10, line("pot", 10))}
	snap = cache.Get(context.Background(), false)
	if _, ok := snap.Model.Price("pot"); !ok {
		t.Fatal("recovered source should produce a real model")
	}
}
