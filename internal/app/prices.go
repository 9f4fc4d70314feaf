package app

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
)

// Prices prints the current model's estimates and convergence state.
func (a *App) Prices(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	snap := a.newService(store, 0).Model(ctx, false)
	model := snap.Model
	if len(model.Estimates) == 0 {
		fmt.Fprintln(os.Stdout, "no priced items yet")
		return nil
	}

	items := make([]string, 0, len(model.Estimates))
	for it := range model.Estimates {
		items = append(items, it)
	}
	sort.Strings(items)

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Item\tPrice/unit\tQuantity seen\tBundles")
	for _, it := range items {
		est := model.Estimates[it]
		fmt.Fprintf(writer, "%s\t%s\t%.0f\t%d\n", it, formatMoney(est.PricePerUnit), est.TotalQuantity, est.BundleCount)
	}
	writer.Flush()

	fmt.Fprintf(os.Stdout, "\n%d bundles, %d refinement passes, converged=%t\n",
		len(snap.Bundles), model.Iterations, model.Converged)
	return nil
}
