package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"pack-grader/internal/grading"
	"pack-grader/internal/pricing"
)

// Grade appraises a hypothetical bundle against the current model.
func (a *App) Grade(ctx context.Context, opts GradeOptions) error {
	items, err := ParseItems(opts.Items)
	if err != nil {
		return err
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	svc := a.newService(store, 0)
	result, err := svc.Grade(ctx, items, opts.Price, false)
	if err != nil {
		return err
	}

	printResult(items, opts.Price, result)
	return nil
}

func printResult(items []pricing.ItemLine, price float64, result grading.Result) {
	fmt.Fprintf(os.Stdout, "Grade: %s\n", result.Grade)
	fmt.Fprintf(os.Stdout, "Market value: %s (paid %s)\n", formatMoney(result.MarketValue), formatMoney(price))
	fmt.Fprintf(os.Stdout, "Value ratio: %.3f\n", result.ValueRatio)
	if result.SampleSize > 0 {
		fmt.Fprintf(os.Stdout, "Better than %d%% of %d historical bundles\n", result.BetterThanPercent, result.SampleSize)
	} else {
		fmt.Fprintln(os.Stdout, "No reference bundles; graded from the absolute value ratio")
	}

	if len(result.Similar) == 0 {
		return
	}

	fmt.Fprintln(os.Stdout, "\nComparable bundles:")
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tPrice\tMarket value\tRatio\tObserved (UTC)")
	for _, s := range result.Similar {
		fmt.Fprintf(writer, "%d\t%s\t%s\t%.3f\t%s\n",
			s.ID,
			formatMoney(s.Price),
			formatMoney(s.MarketValue),
			s.ValueRatio,
			s.ObservedAt.UTC().Format(time.RFC3339),
		)
	}
	writer.Flush()
}
