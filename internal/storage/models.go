package storage

import (
	"time"

	"github.com/shopspring/decimal"

	"pack-grader/internal/pricing"
)

// BundleRecord is a persisted pack submission.
type BundleRecord struct {
	ID         int64
	Price      decimal.Decimal
	Items      []pricing.ItemLine
	ObservedAt time.Time
	CreatedAt  time.Time
}

// ToBundle converts the stored record into the pricing engine's domain type.
// The engine works in float64; money stays decimal up to this boundary.
func (r BundleRecord) ToBundle() pricing.Bundle {
	return pricing.Bundle{
		ID:         r.ID,
		Price:      r.Price.InexactFloat64(),
		Items:      r.Items,
		ObservedAt: r.ObservedAt,
	}
}
