package grading

import (
	"errors"
	"math"
	"sort"
	"time"

	"pack-grader/internal/pricing"
)

var (
	// ErrNonPositivePrice signals a target price that cannot be graded.
	ErrNonPositivePrice = errors.New("grading: price must be greater than zero")
	// ErrUnpricedItems signals a target containing item types absent from
	// the model, under the exclude policy.
	ErrUnpricedItems = errors.New("grading: bundle contains unpriced item types")
)

// UnpricedPolicy controls how item lines absent from the model affect grading.
type UnpricedPolicy string

const (
	// UnpricedZero values unpriced lines at zero market value.
	UnpricedZero UnpricedPolicy = "zero"
	// UnpricedExclude drops reference bundles with unpriced lines from the
	// comparison set and refuses to grade targets containing them.
	UnpricedExclude UnpricedPolicy = "exclude"
)

// Defaults for similar-bundle lookup.
const (
	DefaultSimilarLimit = 5
	DefaultSimilarBand  = 0.2
)

// Options tune the grading engine.
type Options struct {
	Policy       UnpricedPolicy
	SimilarLimit int
	SimilarBand  float64
}

func (o Options) withDefaults() Options {
	if o.Policy == "" {
		o.Policy = UnpricedZero
	}
	if o.SimilarLimit <= 0 {
		o.SimilarLimit = DefaultSimilarLimit
	}
	if o.SimilarBand <= 0 {
		o.SimilarBand = DefaultSimilarBand
	}
	return o
}

// SimilarBundle is a historical bundle comparable to the graded one.
type SimilarBundle struct {
	ID          int64
	Price       float64
	MarketValue float64
	ValueRatio  float64
	ObservedAt  time.Time
}

// Result is a transient grading outcome, computed per request.
type Result struct {
	Grade             string
	ValueRatio        float64
	MarketValue       float64
	BetterThanPercent int
	// SampleSize is zero when the grade came from the absolute fallback
	// ladder rather than a percentile rank.
	SampleSize int
	Similar    []SimilarBundle
}

// Grader ranks bundles against historical value ratios.
type Grader struct {
	opts Options
}

// NewGrader constructs a Grader.
func NewGrader(opts Options) *Grader {
	return &Grader{opts: opts.withDefaults()}
}

type refEntry struct {
	bundle      pricing.Bundle
	marketValue float64
	ratio       float64
}

// Grade computes the target's value ratio under the given model, ranks it
// against the reference bundles, and assigns a grade. With no usable
// references the grade falls back to the absolute ratio ladder.
func (g *Grader) Grade(items []pricing.ItemLine, price float64, model *pricing.Model, references []pricing.Bundle) (Result, error) {
	if price <= 0 {
		return Result{}, ErrNonPositivePrice
	}
	if g.opts.Policy == UnpricedExclude && model.HasUnpriced(items) {
		return Result{}, ErrUnpricedItems
	}

	marketValue := model.MarketValue(items)
	ratio := marketValue / price

	refs := make([]refEntry, 0, len(references))
	for _, rb := range references {
		if !rb.Usable() {
			continue
		}
		if g.opts.Policy == UnpricedExclude && model.HasUnpriced(rb.Items) {
			continue
		}
		mv := model.MarketValue(rb.Items)
		refs = append(refs, refEntry{bundle: rb, marketValue: mv, ratio: mv / rb.Price})
	}

	res := Result{
		ValueRatio:  ratio,
		MarketValue: marketValue,
		SampleSize:  len(refs),
	}

	if len(refs) == 0 {
		res.Grade = absoluteGrade(ratio)
		return res, nil
	}

	atOrBelow := 0
	for _, r := range refs {
		if r.ratio <= ratio {
			atOrBelow++
		}
	}
	res.BetterThanPercent = int(math.Round(100 * float64(atOrBelow) / float64(len(refs))))
	res.Grade = percentileGrade(res.BetterThanPercent)
	res.Similar = g.similar(marketValue, refs)

	return res, nil
}

// similar selects references whose market value lies within the band around
// the target's, best value ratio first.
func (g *Grader) similar(marketValue float64, refs []refEntry) []SimilarBundle {
	if marketValue <= 0 {
		return nil
	}
	band := g.opts.SimilarBand * marketValue

	var close []refEntry
	for _, r := range refs {
		if math.Abs(r.marketValue-marketValue) <= band {
			close = append(close, r)
		}
	}
	sort.Slice(close, func(i, j int) bool {
		if close[i].ratio != close[j].ratio {
			return close[i].ratio > close[j].ratio
		}
		return close[i].bundle.ID < close[j].bundle.ID
	})
	if len(close) > g.opts.SimilarLimit {
		close = close[:g.opts.SimilarLimit]
	}

	out := make([]SimilarBundle, 0, len(close))
	for _, r := range close {
		out = append(out, SimilarBundle{
			ID:          r.bundle.ID,
			Price:       r.bundle.Price,
			MarketValue: r.marketValue,
			ValueRatio:  r.ratio,
			ObservedAt:  r.bundle.ObservedAt,
		})
	}
	return out
}

// percentileGrade maps a better-than percentile onto the 7-tier ladder.
func percentileGrade(p int) string {
	switch {
	case p >= 95:
		return "S"
	case p >= 85:
		return "A"
	case p >= 70:
		return "B"
	case p >= 50:
		return "C"
	case p >= 30:
		return "D"
	case p >= 15:
		return "E"
	default:
		return "F"
	}
}

// absoluteGrade maps a raw value ratio onto the fallback ladder, used when
// no reference bundles exist to rank against.
func absoluteGrade(ratio float64) string {
	switch {
	case ratio >= 2.0:
		return "S"
	case ratio >= 1.5:
		return "A"
	case ratio >= 1.2:
		return "B"
	case ratio >= 1.0:
		return "C"
	case ratio >= 0.85:
		return "D"
	case ratio >= 0.7:
		return "E"
	default:
		return "F"
	}
}
