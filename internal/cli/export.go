package cli

import (
	"errors"

	"github.com/spf13/cobra"

	"pack-grader/internal/app"
)

var (
	exportItem      string
	exportPNGPath   string
	exportCSVPath   string
	exportMaxPoints int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export an item's price trend as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportItem == "" {
			return errors.New("--item is required")
		}

		opts := app.ExportOptions{
			ItemType:  exportItem,
			PNGPath:   exportPNGPath,
			CSVPath:   exportCSVPath,
			MaxPoints: exportMaxPoints,
		}

		return getApp().Export(cmd.Context(), opts)
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportItem, "item", "", "Item type identifier")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxPoints, "max-points", 0, "Maximum data points to export (defaults to config)")
}
