package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"pack-grader/internal/alerting"
	"pack-grader/internal/config"
	"pack-grader/internal/grading"
	"pack-grader/internal/pricing"
	"pack-grader/internal/scheduler"
	"pack-grader/internal/service"
	"pack-grader/internal/storage"
	"pack-grader/internal/trend"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// newService wires the pricing core on top of a bundle source. trendDays
// above zero overrides the configured series window.
func (a *App) newService(source pricing.BundleSource, trendDays int) *service.Service {
	builder := pricing.NewBuilder(pricing.Options{
		MaxIterations: a.Config.Pricing.MaxIterations,
		Tolerance:     a.Config.Pricing.Tolerance,
		Epsilon:       a.Config.Pricing.Epsilon,
	}, a.Logger)

	cache := pricing.NewCache(source, builder, a.Config.Pricing.CacheTTL, a.Logger)

	grader := grading.NewGrader(grading.Options{
		Policy:       grading.UnpricedPolicy(a.Config.Grading.UnpricedPolicy),
		SimilarLimit: a.Config.Grading.SimilarLimit,
		SimilarBand:  a.Config.Grading.SimilarBand,
	})

	trends := trend.NewBuilder(trend.Options{
		Days:            a.Config.ResolveTrendDays(trendDays),
		BandLow:         a.Config.Trend.BandLow,
		BandHigh:        a.Config.Trend.BandHigh,
		OutlierFactor:   a.Config.Trend.OutlierFactor,
		OutlierPenalty:  a.Config.Trend.OutlierPenalty,
		FillGaps:        a.Config.Trend.FillGaps,
		CarryConfidence: a.Config.Trend.CarryConfidence,
	})

	return service.New(cache, grader, trends, a.Logger)
}

// newCache exposes the model cache on its own, for the watch loop.
func (a *App) newCache(source pricing.BundleSource) *pricing.Cache {
	builder := pricing.NewBuilder(pricing.Options{
		MaxIterations: a.Config.Pricing.MaxIterations,
		Tolerance:     a.Config.Pricing.Tolerance,
		Epsilon:       a.Config.Pricing.Epsilon,
	}, a.Logger)
	return pricing.NewCache(source, builder, a.Config.Pricing.CacheTTL, a.Logger)
}

func (a *App) newNotifier() alerting.Notifier {
	if a.Config.Watch.Telegram.Enabled {
		cfg := a.Config.Watch.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) newScheduler() *scheduler.Scheduler {
	return scheduler.New(scheduler.Options{
		Interval:     a.Config.Watch.Interval,
		StartupDelay: a.Config.Watch.StartupDelay,
	}, a.Logger)
}

func formatMoney(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// GradeOptions configure the grade command.
type GradeOptions struct {
	Items string
	Price float64
}

// SubmitOptions configure the submit command.
type SubmitOptions struct {
	Items      string
	Price      float64
	ObservedAt *time.Time
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// TrendOptions configure the trend command.
type TrendOptions struct {
	ItemType string
	Days     int
}

// ExportOptions hold parameters for exporting a trend series.
type ExportOptions struct {
	ItemType  string
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
