package pricing

import (
	"math"

	"github.com/rs/zerolog"
)

// Defaults for the iterative refinement.
const (
	DefaultMaxIterations = 15
	DefaultTolerance     = 0.001
	DefaultEpsilon       = 0.01
)

// Options tune the price inference.
type Options struct {
	// MaxIterations caps refinement passes so cyclic or contradictory
	// data always terminates.
	MaxIterations int
	// Tolerance is the maximum per-item price change under which a pass
	// counts as converged.
	Tolerance float64
	// Epsilon is the price disagreement below which a fully-known bundle
	// is treated as internally consistent.
	Epsilon float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	if o.Epsilon <= 0 {
		o.Epsilon = DefaultEpsilon
	}
	return o
}

// Builder derives per-unit item prices from whole-bundle observations.
// Single-line bundles anchor baseline prices; multi-line bundles are then
// relaxed iteratively, attributing each bundle's residual price to its
// not-yet-priced lines proportionally to quantity.
type Builder struct {
	opts   Options
	logger zerolog.Logger
}

// NewBuilder constructs a Builder.
func NewBuilder(opts Options, logger zerolog.Logger) *Builder {
	return &Builder{
		opts:   opts.withDefaults(),
		logger: logger.With().Str("component", "pricing").Logger(),
	}
}

// stats accumulates price evidence for one item type.
type stats struct {
	cost    float64
	qty     float64
	bundles int
}

// Build derives a fresh model from a bundle snapshot. Malformed bundles are
// excluded, never fatal. The result is deterministic for a given snapshot
// regardless of bundle order.
func (b *Builder) Build(bundles []Bundle) *Model {
	var single, multi []Bundle
	skipped := 0
	for _, bn := range bundles {
		if !bn.Usable() {
			skipped++
			continue
		}
		if len(bn.Items) == 1 {
			single = append(single, bn)
		} else {
			multi = append(multi, bn)
		}
	}
	if skipped > 0 {
		b.logger.Debug().Int("skipped", skipped).Msg("excluded malformed bundles from pricing")
	}

	// Baseline pass: bundles with exactly one item line price that type
	// without any inference.
	totals := make(map[string]stats)
	for _, bn := range single {
		line := bn.Items[0]
		if line.Quantity <= 0 {
			continue
		}
		st := totals[line.ItemType]
		st.cost += bn.Price
		st.qty += float64(line.Quantity)
		st.bundles++
		totals[line.ItemType] = st
	}
	prices := pricesFrom(totals)

	iterations := 0
	converged := len(multi) == 0
	for !converged && iterations < b.opts.MaxIterations {
		shadow := b.refinePass(multi, prices)
		iterations++

		if len(shadow) == 0 {
			converged = true
			break
		}

		newlyPriced := false
		for it, st := range shadow {
			cur := totals[it]
			cur.cost += st.cost
			cur.qty += st.qty
			cur.bundles += st.bundles
			totals[it] = cur
			if _, ok := prices[it]; !ok {
				newlyPriced = true
			}
		}

		next := pricesFrom(totals)
		if !newlyPriced && maxDelta(prices, next) <= b.opts.Tolerance {
			converged = true
		}
		prices = next
	}

	estimates := make(map[string]Estimate, len(totals))
	for it, st := range totals {
		if st.qty <= 0 {
			continue
		}
		estimates[it] = Estimate{
			ItemType:      it,
			PricePerUnit:  st.cost / st.qty,
			TotalCost:     st.cost,
			TotalQuantity: st.qty,
			BundleCount:   st.bundles,
		}
	}

	b.logger.Info().
		Int("bundles", len(single)+len(multi)).
		Int("priced_items", len(estimates)).
		Int("iterations", iterations).
		Bool("converged", converged).
		Msg("pricing model built")

	return &Model{Estimates: estimates, Iterations: iterations, Converged: converged}
}

// refinePass scans multi-line bundles against the current price snapshot and
// accumulates contributions into a shadow table. Live totals are untouched
// until the pass completes, so results never depend on bundle order.
func (b *Builder) refinePass(multi []Bundle, prices map[string]float64) map[string]stats {
	shadow := make(map[string]stats)

	for _, bn := range multi {
		knownValue := 0.0
		knownLines := 0
		var unknown []ItemLine
		unknownQty := 0.0
		for _, line := range bn.Items {
			if line.Quantity <= 0 {
				continue
			}
			if p, ok := prices[line.ItemType]; ok {
				knownValue += p * float64(line.Quantity)
				knownLines++
			} else {
				unknown = append(unknown, line)
				unknownQty += float64(line.Quantity)
			}
		}

		switch {
		case len(unknown) > 0:
			// Attribute the residual to unknown lines proportional to
			// quantity. A bundle whose known lines already exceed its
			// price carries no usable signal for the unknowns.
			if knownValue >= bn.Price || unknownQty <= 0 {
				continue
			}
			remaining := bn.Price - knownValue
			for _, line := range unknown {
				st := shadow[line.ItemType]
				st.cost += remaining * float64(line.Quantity) / unknownQty
				st.qty += float64(line.Quantity)
				st.bundles++
				shadow[line.ItemType] = st
			}

		case knownLines > 1:
			// Fully known but price-inconsistent bundles pull estimates
			// toward agreement instead of freezing baselines forever.
			if knownValue <= 0 || math.Abs(knownValue-bn.Price) <= b.opts.Epsilon {
				continue
			}
			factor := bn.Price / knownValue
			for _, line := range bn.Items {
				if line.Quantity <= 0 {
					continue
				}
				p := prices[line.ItemType]
				st := shadow[line.ItemType]
				st.cost += p * float64(line.Quantity) * factor
				st.qty += float64(line.Quantity)
				st.bundles++
				shadow[line.ItemType] = st
			}
		}
	}

	return shadow
}

func pricesFrom(totals map[string]stats) map[string]float64 {
	prices := make(map[string]float64, len(totals))
	for it, st := range totals {
		if st.qty > 0 {
			prices[it] = st.cost / st.qty
		}
	}
	return prices
}

// maxDelta compares prices over the previous snapshot's keys; item types
// priced for the first time are caught by the newly-priced check instead.
func maxDelta(prev, next map[string]float64) float64 {
	d := 0.0
	for it, p := range prev {
		if n, ok := next[it]; ok {
			if diff := math.Abs(n - p); diff > d {
				d = diff
			}
		}
	}
	return d
}
