package trend

import (
	"time"

	"pack-grader/internal/pricing"
)

// Defaults for the daily series.
const (
	DefaultDays            = 7
	DefaultBandLow         = 0.1
	DefaultBandHigh        = 10
	DefaultOutlierFactor   = 50
	DefaultOutlierPenalty  = 30
	DefaultCarryConfidence = 20
)

// Options tune series construction and smoothing.
type Options struct {
	// Days is the length of the series window.
	Days int
	// BandLow/BandHigh bound accepted per-bundle estimates as multiples of
	// the model's current price, so one bad observation cannot poison a day.
	BandLow  float64
	BandHigh float64
	// OutlierFactor is the multiplicative deviation from both neighbours at
	// which an interior point is replaced by the neighbour mean.
	OutlierFactor float64
	// OutlierPenalty is subtracted from a smoothed point's confidence.
	OutlierPenalty int
	// FillGaps carries the last known price through empty days at
	// CarryConfidence instead of omitting them.
	FillGaps        bool
	CarryConfidence int
}

func (o Options) withDefaults() Options {
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.BandLow <= 0 {
		o.BandLow = DefaultBandLow
	}
	if o.BandHigh <= 0 {
		o.BandHigh = DefaultBandHigh
	}
	if o.OutlierFactor <= 1 {
		o.OutlierFactor = DefaultOutlierFactor
	}
	if o.OutlierPenalty <= 0 {
		o.OutlierPenalty = DefaultOutlierPenalty
	}
	if o.CarryConfidence <= 0 {
		o.CarryConfidence = DefaultCarryConfidence
	}
	return o
}

// Point is one day of the displayed price series.
type Point struct {
	Date  time.Time
	Price float64
	// Confidence is 0-100, bounded by how many observations backed the day.
	Confidence int
	Samples    int
	Carried    bool
}

// Builder assembles smoothed daily price series for display.
type Builder struct {
	opts Options
}

// NewBuilder constructs a trend Builder.
func NewBuilder(opts Options) *Builder {
	return &Builder{opts: opts.withDefaults()}
}

// Build assembles the last-K-days series for one item type. Returns nil for
// item types the model cannot price.
func (b *Builder) Build(itemType string, bundles []pricing.Bundle, model *pricing.Model, now time.Time) []Point {
	base, ok := model.Price(itemType)
	if !ok || base <= 0 {
		return nil
	}

	today := day(now)
	start := today.AddDate(0, 0, -(b.opts.Days - 1))

	byDay := make(map[time.Time][]float64)
	for _, bn := range bundles {
		if !bn.Usable() {
			continue
		}
		d := day(bn.ObservedAt)
		if d.Before(start) || d.After(today) {
			continue
		}
		est, ok := unitEstimate(itemType, bn, model)
		if !ok {
			continue
		}
		if est < b.opts.BandLow*base || est > b.opts.BandHigh*base {
			continue
		}
		byDay[d] = append(byDay[d], est)
	}

	series := make([]Point, 0, b.opts.Days)
	lastPrice := 0.0
	haveLast := false
	for i := 0; i < b.opts.Days; i++ {
		d := start.AddDate(0, 0, i)
		samples := byDay[d]
		if len(samples) == 0 {
			if b.opts.FillGaps && haveLast {
				series = append(series, Point{
					Date:       d,
					Price:      lastPrice,
					Confidence: b.opts.CarryConfidence,
					Carried:    true,
				})
			}
			continue
		}
		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		price := sum / float64(len(samples))
		series = append(series, Point{
			Date:       d,
			Price:      price,
			Confidence: confidence(len(samples)),
			Samples:    len(samples),
		})
		lastPrice = price
		haveLast = true
	}

	b.smooth(series)
	return series
}

// unitEstimate infers what one unit of itemType cost inside this bundle:
// the line's share of the bundle's market value, scaled back to the price
// actually paid.
func unitEstimate(itemType string, bn pricing.Bundle, model *pricing.Model) (float64, bool) {
	qty := 0
	for _, line := range bn.Items {
		if line.ItemType == itemType && line.Quantity > 0 {
			qty += line.Quantity
		}
	}
	if qty == 0 {
		return 0, false
	}
	marketValue := model.MarketValue(bn.Items)
	if marketValue <= 0 {
		return 0, false
	}
	price, _ := model.Price(itemType)
	return price * bn.Price / marketValue, true
}

// confidence maps a day's observation count onto 0-100.
func confidence(samples int) int {
	c := 40 + 20*(samples-1)
	if c > 100 {
		c = 100
	}
	return c
}

// smooth replaces interior points deviating from both neighbours by at
// least OutlierFactor with the neighbour mean at reduced confidence.
// Comparisons use the original values, so one replacement cannot cascade.
func (b *Builder) smooth(series []Point) {
	if len(series) < 3 {
		return
	}
	orig := make([]float64, len(series))
	for i, p := range series {
		orig[i] = p.Price
	}
	for i := 1; i < len(series)-1; i++ {
		if deviates(orig[i], orig[i-1], b.opts.OutlierFactor) && deviates(orig[i], orig[i+1], b.opts.OutlierFactor) {
			series[i].Price = (orig[i-1] + orig[i+1]) / 2
			series[i].Confidence -= b.opts.OutlierPenalty
			if series[i].Confidence < 0 {
				series[i].Confidence = 0
			}
		}
	}
}

func deviates(v, neighbour, factor float64) bool {
	if v <= 0 || neighbour <= 0 {
		return v != neighbour
	}
	r := v / neighbour
	if r < 1 {
		r = 1 / r
	}
	return r >= factor
}

func day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
