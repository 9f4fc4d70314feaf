package pricing

import "time"

// ItemLine is an (item type, quantity) pair within a bundle.
type ItemLine struct {
	ItemType string `json:"item"`
	Quantity int    `json:"qty"`
}

// Bundle is an observed pack: a list of item lines sold together for a
// single total price. Individual line prices are never observed directly.
type Bundle struct {
	ID         int64
	Price      float64
	Items      []ItemLine
	ObservedAt time.Time
}

// Usable reports whether the bundle may participate in pricing.
func (b Bundle) Usable() bool {
	return b.Price > 0 && len(b.Items) > 0
}

// Estimate is the accumulated price evidence for one item type.
type Estimate struct {
	ItemType      string
	PricePerUnit  float64
	TotalCost     float64
	TotalQuantity float64
	BundleCount   int
}

// Model maps item types to price estimates. A model is built once from a
// bundle snapshot and never mutated afterwards; the next build supersedes
// it wholesale. Item types without enough evidence are absent, not zero.
type Model struct {
	Estimates  map[string]Estimate
	Iterations int
	Converged  bool
}

// EmptyModel returns a model with no priced item types, used when no
// bundle data has ever been fetched successfully.
func EmptyModel() *Model {
	return &Model{Estimates: map[string]Estimate{}, Converged: true}
}

// Price returns the per-unit estimate for an item type, if one exists.
func (m *Model) Price(itemType string) (float64, bool) {
	est, ok := m.Estimates[itemType]
	if !ok {
		return 0, false
	}
	return est.PricePerUnit, true
}

// MarketValue sums price × quantity over lines priced by the model.
// Unpriced lines contribute zero; callers that need a stricter policy
// check HasUnpriced first.
func (m *Model) MarketValue(items []ItemLine) float64 {
	total := 0.0
	for _, line := range items {
		if p, ok := m.Price(line.ItemType); ok {
			total += p * float64(line.Quantity)
		}
	}
	return total
}

// HasUnpriced reports whether any line's item type is absent from the model.
func (m *Model) HasUnpriced(items []ItemLine) bool {
	for _, line := range items {
		if _, ok := m.Price(line.ItemType); !ok {
			return true
		}
	}
	return false
}
