package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"pack-grader/internal/app"
)

var (
	trendItem string
	trendDays int
)

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Display the daily price series for an item type",
	RunE: func(cmd *cobra.Command, args []string) error {
		if trendItem == "" {
			return errors.New("--item is required")
		}

		opts := app.TrendOptions{
			ItemType: trendItem,
			Days:     trendDays,
		}

		return getApp().Trend(cmd.Context(), opts)
	},
}

func init() {
	trendCmd.Flags().StringVar(&trendItem, "item", "", "Item type identifier")
	trendCmd.Flags().IntVar(&trendDays, "days", 0, "Series window in days (defaults to config)")
}
