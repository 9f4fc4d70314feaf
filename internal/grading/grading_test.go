package grading

import (
	"errors"
	"math"
	"testing"

	"pack-grader/internal/pricing"
)

// unitModel prices every listed item type at 1.0/unit.
func unitModel(items ...string) *pricing.Model {
	estimates := make(map[string]pricing.Estimate, len(items))
	for _, it := range items {
		estimates[it] = pricing.Estimate{ItemType: it, PricePerUnit: 1, TotalCost: 1, TotalQuantity: 1, BundleCount: 1}
	}
	return &pricing.Model{Estimates: estimates, Converged: true}
}

// refWithRatio builds a single-line reference bundle of x×10 whose value
// ratio under unitModel("x") is exactly ratio.
func refWithRatio(id int64, ratio float64) pricing.Bundle {
	return pricing.Bundle{
		ID:    id,
		Price: 10 / ratio,
		Items: []pricing.ItemLine{{ItemType: "x", Quantity: 10}},
	}
}

func TestGradePercentileLadder(t *testing.T) {
	model := unitModel("x")
	refs := make([]pricing.Bundle, 0, 10)
	for i := 0; i < 10; i++ {
		refs = append(refs, refWithRatio(int64(i+1), 0.5+0.1*float64(i)))
	}

	// Target ratio 1.35: market value 27 for a price of 20.
	items := []pricing.ItemLine{{ItemType: "x", Quantity: 27}}
	res, err := NewGrader(Options{}).Grade(items, 20, model, refs)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}

	if res.SampleSize != 10 {
		t.Fatalf("sample size = %d, want 10", res.SampleSize)
	}
	if res.BetterThanPercent != 90 {
		t.Fatalf("better-than = %d, want 90", res.BetterThanPercent)
	}
	if res.Grade != "A" {
		t.Fatalf("grade = %s, want A", res.Grade)
	}
}

func TestGradeMedianLandsMidLadder(t *testing.T) {
	model := unitModel("x")
	refs := make([]pricing.Bundle, 0, 10)
	for i := 1; i <= 10; i++ {
		refs = append(refs, refWithRatio(int64(i), 0.25*float64(i)))
	}

	// Ratio 1.25 matches the 5th of 10 reference ratios exactly.
	items := []pricing.ItemLine{{ItemType: "x", Quantity: 10}}
	res, err := NewGrader(Options{}).Grade(items, 8, model, refs)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}

	if res.BetterThanPercent != 50 {
		t.Fatalf("better-than = %d, want 50", res.BetterThanPercent)
	}
	if res.Grade != "C" {
		t.Fatalf("grade = %s, want C", res.Grade)
	}
}

func TestGradeFallbackWithoutReferences(t *testing.T) {
	model := unitModel("x")
	items := []pricing.ItemLine{{ItemType: "x", Quantity: 25}}

	res, err := NewGrader(Options{}).Grade(items, 10, model, nil)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}

	if res.SampleSize != 0 {
		t.Fatalf("sample size = %d, want 0", res.SampleSize)
	}
	if math.Abs(res.ValueRatio-2.5) > 1e-9 {
		t.Fatalf("value ratio = %v, want 2.5", res.ValueRatio)
	}
	if res.Grade != "S" {
		t.Fatalf("grade = %s, want S", res.Grade)
	}
}

func TestGradeFallbackWorstTier(t *testing.T) {
	model := unitModel("x")
	items := []pricing.ItemLine{{ItemType: "x", Quantity: 1}}

	res, err := NewGrader(Options{}).Grade(items, 10, model, nil)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if res.Grade != "F" {
		t.Fatalf("grade = %s, want F", res.Grade)
	}
}

func TestGradeSimilarBundles(t *testing.T) {
	model := unitModel("x")
	refs := []pricing.Bundle{
		// Market value 100 each, ratios 2.0, 1.0, 0.5.
		{ID: 1, Price: 50, Items: []pricing.ItemLine{{ItemType: "x", Quantity: 100}}},
		{ID: 2, Price: 100, Items: []pricing.ItemLine{{ItemType: "x", Quantity: 100}}},
		{ID: 3, Price: 200, Items: []pricing.ItemLine{{ItemType: "x", Quantity: 100}}},
		// Market value 500: outside the ±20% band around 100.
		{ID: 4, Price: 100, Items: []pricing.ItemLine{{ItemType: "x", Quantity: 500}}},
	}

	items := []pricing.ItemLine{{ItemType: "x", Quantity: 100}}
	res, err := NewGrader(Options{}).Grade(items, 100, model, refs)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}

	if len(res.Similar) != 3 {
		t.Fatalf("similar count = %d, want 3", len(res.Similar))
	}
	if res.Similar[0].ID != 1 || res.Similar[1].ID != 2 || res.Similar[2].ID != 3 {
		t.Fatalf("similar bundles not sorted by ratio desc: %+v", res.Similar)
	}
}

func TestGradeSimilarLimit(t *testing.T) {
	model := unitModel("x")
	var refs []pricing.Bundle
	for i := 1; i <= 8; i++ {
		refs = append(refs, pricing.Bundle{
			ID:    int64(i),
			Price: float64(90 + i),
			Items: []pricing.ItemLine{{ItemType: "x", Quantity: 100}},
		})
	}

	items := []pricing.ItemLine{{ItemType: "x", Quantity: 100}}
	res, err := NewGrader(Options{SimilarLimit: 2}).Grade(items, 100, model, refs)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if len(res.Similar) != 2 {
		t.Fatalf("similar count = %d, want 2", len(res.Similar))
	}
}

func TestGradeUnpricedZeroPolicy(t *testing.T) {
	model := unitModel("x")
	items := []pricing.ItemLine{
		{ItemType: "x", Quantity: 10},
		{ItemType: "mystery", Quantity: 100},
	}

	res, err := NewGrader(Options{}).Grade(items, 10, model, nil)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if math.Abs(res.MarketValue-10) > 1e-9 {
		t.Fatalf("market value = %v, want 10 (unpriced lines contribute zero)", res.MarketValue)
	}
}

func TestGradeUnpricedExcludePolicy(t *testing.T) {
	model := unitModel("x")
	grader := NewGrader(Options{Policy: UnpricedExclude})

	target := []pricing.ItemLine{{ItemType: "mystery", Quantity: 1}}
	if _, err := grader.Grade(target, 10, model, nil); !errors.Is(err, ErrUnpricedItems) {
		t.Fatalf("err = %v, want ErrUnpricedItems", err)
	}

	refs := []pricing.Bundle{
		refWithRatio(1, 1.0),
		{ID: 2, Price: 10, Items: []pricing.ItemLine{{ItemType: "mystery", Quantity: 1}}},
	}
	items := []pricing.ItemLine{{ItemType: "x", Quantity: 10}}
	res, err := grader.Grade(items, 10, model, refs)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if res.SampleSize != 1 {
		t.Fatalf("sample size = %d, want 1 (unpriced reference excluded)", res.SampleSize)
	}
}

func TestGradeRejectsNonPositivePrice(t *testing.T) {
	model := unitModel("x")
	items := []pricing.ItemLine{{ItemType: "x", Quantity: 1}}
	if _, err := NewGrader(Options{}).Grade(items, 0, model, nil); !errors.Is(err, ErrNonPositivePrice) {
		t.Fatalf("err = %v, want ErrNonPositivePrice", err)
	}
}

func TestGradeSkipsMalformedReferences(t *testing.T) {
	model := unitModel("x")
	refs := []pricing.Bundle{
		{ID: 1, Price: 0, Items: []pricing.ItemLine{{ItemType: "x", Quantity: 1}}},
		{ID: 2, Price: 10},
		refWithRatio(3, 1.0),
	}

	items := []pricing.ItemLine{{ItemType: "x", Quantity: 10}}
	res, err := NewGrader(Options{}).Grade(items, 10, model, refs)
	if err != nil {
		t.Fatalf("grade failed: %v", err)
	}
	if res.SampleSize != 1 {
		t.Fatalf("sample size = %d, want 1", res.SampleSize)
	}
}
