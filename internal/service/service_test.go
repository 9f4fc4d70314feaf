package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"pack-grader/internal/grading"
	"pack-grader/internal/pricing"
	"pack-grader/internal/trend"
)

type fakeSource struct {
	bundles []pricing.Bundle
}

func (f *fakeSource) ListBundles(ctx context.Context) ([]pricing.Bundle, error) {
	return f.bundles, nil
}

func potLine(qty int) pricing.ItemLine {
	return pricing.ItemLine{ItemType: "pot", Quantity: qty}
}

func newTestService(src pricing.BundleSource) *Service {
	builder := pricing.NewBuilder(pricing.Options{}, zerolog.Nop())
	cache := pricing.NewCache(src, builder, time.Minute, zerolog.Nop())
	return New(cache, grading.NewGrader(grading.Options{}), trend.NewBuilder(trend.Options{}), zerolog.Nop())
}

func TestServiceGradeEndToEnd(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{bundles: []pricing.Bundle{
		{ID: 1, Price: 10, Items: []pricing.ItemLine{potLine(10)}, ObservedAt: now},
		{ID: 2, Price: 20, Items: []pricing.ItemLine{potLine(10)}, ObservedAt: now},
	}}
	svc := newTestService(src)

	// Market value 10 for a price of 5: better than both references.
	res, err := svc.Grade(context.Background(), []pricing.ItemLine{potLine(10)}, 5, false)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if res.SampleSize != 2 {
		t.Fatalf("sample size = %d, want 2", res.SampleSize)
	}
	if res.BetterThanPercent != 100 {
		t.Fatalf("better-than = %d, want 100", res.BetterThanPercent)
	}
	if res.Grade != "S" {
		t.Fatalf("grade = %s, want S", res.Grade)
	}
}

func TestServiceTrendUsesModelSnapshot(t *testing.T) {
	now := time.Now().UTC()
	src := &fakeSource{bundles: []pricing.Bundle{
		{ID: 1, Price: 10, Items: []pricing.ItemLine{potLine(10)}, ObservedAt: now},
	}}
	svc := newTestService(src)

	series := svc.Trend(context.Background(), "pot", now)
	if len(series) != 1 {
		t.Fatalf("series length = %d, want 1", len(series))
	}
	if series[0].Price != 1 {
		t.Fatalf("price = %v, want 1", series[0].Price)
	}
}
