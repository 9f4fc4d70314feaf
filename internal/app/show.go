package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent bundle submissions.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	records, err := store.ListRecentBundles(ctx, opts.Limit)
	if err != nil {
		return err
	}
	total, err := store.CountBundles(ctx)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no bundles found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tObserved (UTC)\tPrice\tItems")

	for _, rec := range records {
		lines := make([]string, 0, len(rec.Items))
		for _, line := range rec.Items {
			lines = append(lines, fmt.Sprintf("%s×%d", line.ItemType, line.Quantity))
		}
		fmt.Fprintf(
			writer,
			"%d\t%s\t%s\t%s\n",
			rec.ID,
			rec.ObservedAt.UTC().Format(time.RFC3339),
			rec.Price.StringFixed(2),
			strings.Join(lines, ", "),
		)
	}

	writer.Flush()
	fmt.Fprintf(os.Stdout, "\nshowing %d of %d bundles\n", len(records), total)
	return nil
}
