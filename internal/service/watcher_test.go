package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pack-grader/internal/alerting"
	"pack-grader/internal/pricing"
)

type recordingNotifier struct {
	calls [][]alerting.Movement
}

func (r *recordingNotifier) Notify(ctx context.Context, movements []alerting.Movement) error {
	r.calls = append(r.calls, movements)
	return nil
}

func newTestWatcher(src pricing.BundleSource, notifier alerting.Notifier) *Watcher {
	builder := pricing.NewBuilder(pricing.Options{}, zerolog.Nop())
	cache := pricing.NewCache(src, builder, time.Minute, zerolog.Nop())
	return NewWatcher(nil, cache, notifier, 10, zerolog.Nop())
}

func TestWatcherFirstTickEstablishesBaseline(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{bundles: []pricing.Bundle{
		{ID: 1, Price: 10, Items: []pricing.ItemLine{potLine(10)}, ObservedAt: now},
	}}
	notifier := &recordingNotifier{}
	w := newTestWatcher(src, notifier)

	if err := w.tick(context.Background(), now); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if len(notifier.calls) != 0 {
		t.Fatalf("first tick should not alert, got %d calls", len(notifier.calls))
	}
	if w.prev["pot"] != 1 {
		t.Fatalf("baseline price = %v, want 1", w.prev["pot"])
	}
}

func TestWatcherAlertsOnMovementAboveThreshold(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{bundles: []pricing.Bundle{
		{ID: 1, Price: 10, Items: []pricing.ItemLine{potLine(10)}, ObservedAt: now},
	}}
	notifier := &recordingNotifier{}
	w := newTestWatcher(src, notifier)

	if err := w.tick(context.Background(), now); err != nil {
		t.Fatalf("first tick failed: %v", err)
	}

	// Price jumps 50%: the single pot bundle now sells for 15.
	src.bundles = []pricing.Bundle{
		{ID: 1, Price: 15, Items: []pricing.ItemLine{potLine(10)}, ObservedAt: now},
	}
	if err := w.tick(context.Background(), now); err != nil {
		t.Fatalf("second tick failed: %v", err)
	}

	if len(notifier.calls) != 1 {
		t.Fatalf("notifier calls = %d, want 1", len(notifier.calls))
	}
	movements := notifier.calls[0]
	if len(movements) != 1 {
		t.Fatalf("movements = %d, want 1", len(movements))
	}
	m := movements[0]
	if m.ItemType != "pot" {
		t.Fatalf("item = %s, want pot", m.ItemType)
	}
	if m.ChangePct.StringFixed(0) != "50" {
		t.Fatalf("change = %s%%, want 50%%", m.ChangePct.StringFixed(0))
	}
}

func TestWatcherIgnoresSmallMovements(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{bundles: []pricing.Bundle{
		{ID: 1, Price: 100, Items: []pricing.ItemLine{potLine(100)}, ObservedAt: now},
	}}
	notifier := &recordingNotifier{}
	w := newTestWatcher(src, notifier)

	if err := w.tick(context.Background(), now); err != nil {
		t.Fatalf("first tick failed: %v", err)
	}

	// 5% drift stays below the 10% threshold.
	src.bundles = []pricing.Bundle{
		{ID: 1, Price: 105, Items: []pricing.ItemLine{potLine(100)}, ObservedAt: now},
	}
	if err := w.tick(context.Background(), now); err != nil {
		t.Fatalf("second tick failed: %v", err)
	}

	if len(notifier.calls) != 0 {
		t.Fatalf("notifier calls = %d, want 0", len(notifier.calls))
	}
}
