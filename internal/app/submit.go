package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"pack-grader/internal/storage"
)

// Submit 写入一个新 bundle，强制刷新模型后立即评级。
func (a *App) Submit(ctx context.Context, opts SubmitOptions) error {
	items, err := ParseItems(opts.Items)
	if err != nil {
		return err
	}
	if opts.Price <= 0 {
		return fmt.Errorf("--price 必须大于 0")
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	rec := storage.BundleRecord{
		Price: decimal.NewFromFloat(opts.Price),
		Items: items,
	}
	if opts.ObservedAt != nil {
		rec.ObservedAt = opts.ObservedAt.UTC()
	}

	rec, err = store.InsertBundle(ctx, rec)
	if err != nil {
		return err
	}

	a.Logger.Info().Int64("id", rec.ID).Time("observed_at", rec.ObservedAt).Msg("bundle submitted")
	fmt.Fprintf(os.Stdout, "Submitted bundle %d (%s, %s)\n\n", rec.ID, rec.Price.StringFixed(2), rec.ObservedAt.Format(time.RFC3339))

	// Force refresh so the grade already reflects this submission.
	svc := a.newService(store, 0)
	result, err := svc.Grade(ctx, items, opts.Price, true)
	if err != nil {
		return err
	}

	printResult(items, opts.Price, result)
	return nil
}
