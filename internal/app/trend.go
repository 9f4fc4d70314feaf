package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"
)

// Trend prints the smoothed daily price series for one item type.
func (a *App) Trend(ctx context.Context, opts TrendOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	series := a.newService(store, opts.Days).Trend(ctx, opts.ItemType, time.Now())
	if len(series) == 0 {
		fmt.Fprintf(os.Stdout, "no trend data for %q\n", opts.ItemType)
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tPrice/unit\tConfidence\tSamples")
	for _, p := range series {
		note := ""
		if p.Carried {
			note = " (carried)"
		}
		fmt.Fprintf(writer, "%s\t%s\t%d\t%d%s\n",
			p.Date.Format("2006-01-02"),
			formatMoney(p.Price),
			p.Confidence,
			p.Samples,
			note,
		)
	}
	writer.Flush()
	return nil
}
