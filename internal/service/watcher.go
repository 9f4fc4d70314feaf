package service

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pack-grader/internal/alerting"
	"pack-grader/internal/pricing"
	"pack-grader/internal/scheduler"
)

// Watcher rebuilds the pricing model on an interval and reports item price
// movements that cross the configured threshold.
type Watcher struct {
	sched       *scheduler.Scheduler
	cache       *pricing.Cache
	notifier    alerting.Notifier
	movementPct float64
	logger      zerolog.Logger

	prev map[string]float64
}

// NewWatcher constructs the refresh/alert loop. notifier may be nil, in
// which case movements are only logged.
func NewWatcher(sched *scheduler.Scheduler, cache *pricing.Cache, notifier alerting.Notifier, movementPct float64, logger zerolog.Logger) *Watcher {
	return &Watcher{
		sched:       sched,
		cache:       cache,
		notifier:    notifier,
		movementPct: movementPct,
		logger:      logger.With().Str("component", "watcher").Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	return w.sched.Run(ctx, w.tick)
}

func (w *Watcher) tick(ctx context.Context, at time.Time) error {
	snap := w.cache.Get(ctx, true)
	model := snap.Model

	current := make(map[string]float64, len(model.Estimates))
	for it, est := range model.Estimates {
		current[it] = est.PricePerUnit
	}

	w.logger.Info().
		Int("priced_items", len(current)).
		Int("iterations", model.Iterations).
		Bool("converged", model.Converged).
		Msg("model refreshed")

	if w.prev != nil && w.movementPct > 0 {
		movements := w.diff(model, at)
		if len(movements) > 0 {
			for _, m := range movements {
				w.logger.Warn().
					Str("item", m.ItemType).
					Str("previous", m.Previous.StringFixed(4)).
					Str("current", m.Current.StringFixed(4)).
					Str("change_pct", m.ChangePct.StringFixed(2)).
					Msg("item price moved")
			}
			if w.notifier != nil {
				if err := w.notifier.Notify(ctx, movements); err != nil {
					w.logger.Error().Err(err).Msg("failed to dispatch movement alert")
				}
			}
		}
	}

	w.prev = current
	return nil
}

// diff compares the fresh model against the previous tick's prices.
func (w *Watcher) diff(model *pricing.Model, at time.Time) []alerting.Movement {
	var movements []alerting.Movement
	for it, est := range model.Estimates {
		prevPrice, ok := w.prev[it]
		if !ok || prevPrice <= 0 {
			continue
		}
		pct := (est.PricePerUnit - prevPrice) / prevPrice * 100
		if math.Abs(pct) < w.movementPct {
			continue
		}
		movements = append(movements, alerting.Movement{
			ItemType:  it,
			Previous:  decimal.NewFromFloat(prevPrice),
			Current:   decimal.NewFromFloat(est.PricePerUnit),
			ChangePct: decimal.NewFromFloat(pct),
			Support:   est.BundleCount,
			At:        at,
		})
	}
	sort.Slice(movements, func(i, j int) bool {
		return movements[i].ItemType < movements[j].ItemType
	})
	return movements
}
