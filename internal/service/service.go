package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pack-grader/internal/grading"
	"pack-grader/internal/pricing"
	"pack-grader/internal/trend"
)

// Service is the composition root for the pricing core. It owns the model
// cache and exposes the operations the presentation layer consumes.
type Service struct {
	cache  *pricing.Cache
	grader *grading.Grader
	trends *trend.Builder
	logger zerolog.Logger
}

// New constructs the appraisal service.
func New(cache *pricing.Cache, grader *grading.Grader, trends *trend.Builder, logger zerolog.Logger) *Service {
	return &Service{
		cache:  cache,
		grader: grader,
		trends: trends,
		logger: logger.With().Str("component", "service").Logger(),
	}
}

// Model returns the current pricing snapshot, rebuilding on demand.
func (s *Service) Model(ctx context.Context, force bool) *pricing.Snapshot {
	return s.cache.Get(ctx, force)
}

// Grade appraises a bundle against the current model and the snapshot it
// was built from. force guarantees the model reflects the latest data,
// which callers want right after submitting a new bundle.
func (s *Service) Grade(ctx context.Context, items []pricing.ItemLine, price float64, force bool) (grading.Result, error) {
	snap := s.cache.Get(ctx, force)
	return s.grader.Grade(items, price, snap.Model, snap.Bundles)
}

// Trend builds the smoothed daily price series for one item type.
func (s *Service) Trend(ctx context.Context, itemType string, now time.Time) []trend.Point {
	snap := s.cache.Get(ctx, false)
	return s.trends.Build(itemType, snap.Bundles, snap.Model, now)
}
